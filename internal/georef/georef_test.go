package georef

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// grid builds a minimal RectifiedGrid document around the given inner
// elements.
func grid(t *testing.T, inner string) *tree.Node {
	t.Helper()
	root, err := tree.Parse(`<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml">` +
		`<gml:RectifiedGrid dimension="2">` + inner + `</gml:RectifiedGrid></gml:FeatureCollection>`)
	require.NoError(t, err)
	return root
}

const (
	offsets4  = `<gml:offsetVector>10.0 0.0</gml:offsetVector><gml:offsetVector>0.0 -10.0</gml:offsetVector>`
	originXML = `<gml:origin><gml:Point srsName="EPSG:3067"><gml:pos>500000 4649776</gml:pos></gml:Point></gml:origin>`
	corners   = `<gml:Envelope><gml:lowerCorner>0 0</gml:lowerCorner><gml:upperCorner>100 200</gml:upperCorner></gml:Envelope>`
)

// TestDeriveAffine_Direct verifies the four-component layout and the exact
// worldfile text.
func TestDeriveAffine_Direct(t *testing.T) {
	a, err := DeriveAffine(grid(t, originXML+offsets4))
	require.NoError(t, err)

	assert.Equal(t, Affine{PixelSizeX: 10, RotationY: 0, RotationX: 0, PixelSizeY: -10, OriginX: 500000, OriginY: 4649776}, a)
	assert.Equal(t, "10\n0\n0\n-10\n500000\n4649776", a.Worldfile())
}

// TestDeriveAffine_Legacy verifies the six-component mapping.
func TestDeriveAffine_Legacy(t *testing.T) {
	root := grid(t, originXML+`<gml:offsetVector>1 2 3</gml:offsetVector><gml:offsetVector>4 5 6</gml:offsetVector>`)

	a, err := DeriveAffine(root)
	require.NoError(t, err)
	assert.True(t, a.Legacy)
	assert.Equal(t, 4.0, a.PixelSizeX)
	assert.Equal(t, 5.0, a.RotationY)
	assert.Equal(t, 3.0, a.RotationX)
	assert.Equal(t, 2.0, a.PixelSizeY)
	assert.Equal(t, "4\n5\n3\n2\n500000\n4649776", a.Worldfile())
}

// TestDeriveAffine_CoordinatesFallback verifies the deprecated origin
// element is used when pos is absent.
func TestDeriveAffine_CoordinatesFallback(t *testing.T) {
	root := grid(t, `<gml:origin><gml:Point><gml:coordinates>1.5,2.5</gml:coordinates></gml:Point></gml:origin>`+offsets4)

	a, err := DeriveAffine(root)
	require.NoError(t, err)
	assert.Equal(t, 1.5, a.OriginX)
	assert.Equal(t, 2.5, a.OriginY)
}

// TestDeriveAffine_Malformed verifies ErrMalformedAffine for bad input.
func TestDeriveAffine_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		inner string
	}{
		{"no offset vectors", originXML},
		{"two components", originXML + `<gml:offsetVector>10 0</gml:offsetVector>`},
		{"five components", originXML + `<gml:offsetVector>1 2 3</gml:offsetVector><gml:offsetVector>4 5</gml:offsetVector>`},
		{"eight components", originXML + `<gml:offsetVector>1 2 3 4</gml:offsetVector><gml:offsetVector>5 6 7 8</gml:offsetVector>`},
		{"unparseable component", originXML + `<gml:offsetVector>1.2.3 0</gml:offsetVector><gml:offsetVector>0 -1</gml:offsetVector>`},
		{"no origin", offsets4},
		{"short origin", `<gml:pos>500000</gml:pos>` + offsets4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAffine(grid(t, tt.inner))
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrMalformedAffine)
		})
	}
}

// TestDeriveMetrics_Corners verifies the metric formulas and formatting.
func TestDeriveMetrics_Corners(t *testing.T) {
	m := DeriveMetrics(grid(t, corners))

	assert.True(t, m.Known())
	assert.Equal(t, "corner", m.Source)
	assert.Equal(t, "100.00", m.XLength)
	assert.Equal(t, "200.00", m.YLength)
	assert.Equal(t, "0.02", m.AreaKm2)
	assert.Equal(t, "223.61", m.Hypotenuse)
	assert.Equal(t, fmt.Sprintf("%.2f", 400/(2*math.Pi)*math.Atan2(200, 100)), m.Azimuth)
	assert.Equal(t, "70.48", m.Azimuth)
}

// TestDeriveMetrics_GridFallback verifies the high/low fallback, including
// when the corners exist but do not parse.
func TestDeriveMetrics_GridFallback(t *testing.T) {
	limits := `<gml:limits><gml:GridEnvelope><gml:low>0 0</gml:low><gml:high>999 499</gml:high></gml:GridEnvelope></gml:limits>`

	for name, inner := range map[string]string{
		"no corners":     limits,
		"broken corners": `<gml:lowerCorner>0 0</gml:lowerCorner><gml:upperCorner>n/a</gml:upperCorner>` + limits,
	} {
		t.Run(name, func(t *testing.T) {
			m := DeriveMetrics(grid(t, inner))
			assert.Equal(t, "grid", m.Source)
			assert.Equal(t, "999.00", m.XLength)
			assert.Equal(t, "499.00", m.YLength)
		})
	}
}

// TestDeriveMetrics_AllUnknown verifies the atomic failure of the group.
func TestDeriveMetrics_AllUnknown(t *testing.T) {
	m := DeriveMetrics(grid(t, `<gml:upperCorner>100 200</gml:upperCorner><gml:high>5</gml:high>`))

	assert.False(t, m.Known())
	for _, v := range []string{m.XLength, m.YLength, m.AreaKm2, m.Hypotenuse, m.Azimuth} {
		assert.Equal(t, model.Unknown, v)
	}
}

// TestDerive_AffineFailureKeepsMetrics verifies that a malformed offset list
// leaves the other derivations intact.
func TestDerive_AffineFailureKeepsMetrics(t *testing.T) {
	root := grid(t, originXML+corners+`<gml:offsetVector>1 2 3</gml:offsetVector>`)

	g := Derive(root)
	require.Error(t, g.AffineErr)
	assert.ErrorIs(t, g.AffineErr, model.ErrMalformedAffine)
	assert.Equal(t, model.Unknown, g.AffineField(g.Affine.PixelSizeX))

	assert.Equal(t, "100.00", g.Metrics.XLength)
	assert.Equal(t, "223.61", g.Metrics.Hypotenuse)
	assert.True(t, g.HasSRS)
	assert.Equal(t, 3067, g.SRSCode)
	assert.Equal(t, "EPSG:3067", g.SRSName)
}

// TestDerive_Complete verifies a document where everything is present.
func TestDerive_Complete(t *testing.T) {
	g := Derive(grid(t, originXML+corners+offsets4))

	require.NoError(t, g.AffineErr)
	assert.Equal(t, "10", g.AffineField(g.Affine.PixelSizeX))
	assert.Equal(t, "-10", g.AffineField(g.Affine.PixelSizeY))
	assert.Equal(t, "0.02", g.Metrics.AreaKm2)
}

// TestSRSCode covers the identifier forms seen in practice.
func TestSRSCode(t *testing.T) {
	tests := []struct {
		srsName string
		want    int
		ok      bool
	}{
		{"EPSG:3067", 3067, true},
		{"urn:ogc:def:crs:EPSG::4326", 4326, true},
		{"urn:ogc:def:crs:EPSG:6.6:2393", 2393, true},
		{"3067", 3067, true},
		{"EPSG:", 0, false},
		{"EPSG:abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.srsName, func(t *testing.T) {
			root := grid(t, `<gml:Point srsName="`+tt.srsName+`"/>`)
			got, ok := SRSCode(root)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := SRSCode(grid(t, ""))
	assert.False(t, ok)
	assert.Equal(t, model.Unknown, SRSName(grid(t, "")))
}
