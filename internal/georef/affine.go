// Package georef derives georeferencing parameters from a parsed GML tree:
// the six-parameter affine transform written to worldfiles, bounding-box
// metrics, and the reference-system code.
//
// The three derivations are independent. A failure in one never hides the
// results of the others.
package georef

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// Affine is the pixel-to-map transform of a rectified grid.
type Affine struct {
	PixelSizeX float64
	RotationY  float64
	RotationX  float64
	PixelSizeY float64
	OriginX    float64
	OriginY    float64

	// Legacy is set when the offset vectors used the six-component layout.
	Legacy bool
}

// Worldfile renders the six worldfile lines in their conventional order,
// using the shortest decimal form of each value. There is no trailing
// newline.
func (a Affine) Worldfile() string {
	values := []float64{a.PixelSizeX, a.RotationY, a.RotationX, a.PixelSizeY, a.OriginX, a.OriginY}
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(lines, "\n")
}

// DeriveAffine reads the first two offsetVector occurrences and the origin
// point. The concatenated offset components are mapped by count:
//
//	4 components: pixelSizeX, rotationY, rotationX, pixelSizeY
//	6 components: pixelSizeX=l[3], rotationY=l[4], rotationX=l[2], pixelSizeY=l[1]
//
// Any other count, unparseable components, or an origin without two
// values fail with model.ErrMalformedAffine.
func DeriveAffine(root *tree.Node) (Affine, error) {
	var tokens []string
	for n := range 2 {
		if v, ok := valueAt(root, "offsetVector", n); ok {
			tokens = append(tokens, v.Tokens()...)
		}
	}

	l, err := tree.Floats(tree.NumericList(tokens))
	if err != nil {
		return Affine{}, fmt.Errorf("%w: offset vector: %v", model.ErrMalformedAffine, err)
	}

	var a Affine
	switch len(l) {
	case 4:
		a.PixelSizeX, a.RotationY, a.RotationX, a.PixelSizeY = l[0], l[1], l[2], l[3]
	case 6:
		// Mapping of the legacy layout as emitted by older writers. It has
		// not been checked against a reference file.
		a.PixelSizeX, a.RotationY, a.RotationX, a.PixelSizeY = l[3], l[4], l[2], l[1]
		a.Legacy = true
	default:
		return Affine{}, fmt.Errorf("%w: offset vectors hold %d components, want 4 or 6",
			model.ErrMalformedAffine, len(l))
	}

	a.OriginX, a.OriginY, err = origin(root)
	if err != nil {
		return Affine{}, err
	}
	return a, nil
}

// origin reads the grid origin from pos, falling back to the deprecated
// coordinates element.
func origin(root *tree.Node) (float64, float64, error) {
	v, ok := valueAt(root, "pos", 0)
	if !ok {
		v, ok = valueAt(root, "coordinates", 0)
	}
	if !ok {
		return 0, 0, fmt.Errorf("%w: origin: no pos or coordinates element", model.ErrMalformedAffine)
	}

	xy, err := tree.Floats(v)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: origin: %v", model.ErrMalformedAffine, err)
	}
	if len(xy) < 2 {
		return 0, 0, fmt.Errorf("%w: origin holds %d values, want 2", model.ErrMalformedAffine, len(xy))
	}
	return xy[0], xy[1], nil
}

func valueAt(root *tree.Node, key string, n int) (tree.Value, bool) {
	node, ok := tree.Lookup(root, key, n)
	if !ok {
		return nil, false
	}
	return tree.ValueOf(node)
}
