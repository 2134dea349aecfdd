package georef

import (
	"strconv"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// SRSName returns the first srsName attribute, or model.Unknown.
func SRSName(root *tree.Node) string {
	return tree.LookupOrUnknown(root, "srsName", 0)
}

// SRSCode extracts the numeric reference-system code from the first
// srsName, taking the part after the last ':' (for example 3067 from
// "urn:ogc:def:crs:EPSG::3067" or "EPSG:3067").
func SRSCode(root *tree.Node) (int, bool) {
	name, ok := tree.LookupText(root, "srsName", 0)
	if !ok {
		return 0, false
	}
	code := strings.TrimSpace(name[strings.LastIndexByte(name, ':')+1:])
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Georeference collects every derivation for one tree.
type Georeference struct {
	Affine    Affine
	AffineErr error
	Metrics   Metrics

	SRSName string
	SRSCode int
	HasSRS  bool
}

// Derive runs the affine, metric and reference-system derivations. An
// affine failure is kept in AffineErr and does not affect the others.
func Derive(root *tree.Node) Georeference {
	g := Georeference{
		Metrics: DeriveMetrics(root),
		SRSName: SRSName(root),
	}
	g.Affine, g.AffineErr = DeriveAffine(root)
	g.SRSCode, g.HasSRS = SRSCode(root)
	return g
}

// AffineField formats one affine parameter for display, or model.Unknown
// when the transform could not be derived.
func (g Georeference) AffineField(v float64) string {
	if g.AffineErr != nil {
		return model.Unknown
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
