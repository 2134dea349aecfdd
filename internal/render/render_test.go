package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/jp2gml/internal/georef"
	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/pipeline"
	"github.com/shinji-kodama/jp2gml/internal/refsys"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

const coverage = `<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml">` +
	`<gml:boundedBy><gml:Envelope srsName="EPSG:3067">` +
	`<gml:lowerCorner>0 0</gml:lowerCorner><gml:upperCorner>100 200</gml:upperCorner>` +
	`</gml:Envelope></gml:boundedBy>` +
	`<gml:RectifiedGrid dimension="2">` +
	`<gml:origin><gml:Point><gml:pos>500000 4649776</gml:pos></gml:Point></gml:origin>` +
	`<gml:offsetVector>10 0</gml:offsetVector><gml:offsetVector>0 -10</gml:offsetVector>` +
	`</gml:RectifiedGrid></gml:FeatureCollection>`

// result builds a pipeline result from GML text.
func result(t *testing.T, gml string) *pipeline.Result {
	t.Helper()
	root, err := tree.Parse(gml)
	require.NoError(t, err)
	return &pipeline.Result{Tree: root, Geo: georef.Derive(root)}
}

// TestRender_Worldfile verifies the worldfile output.
func TestRender_Worldfile(t *testing.T) {
	for _, format := range []model.OutputFormat{model.FormatTFW, model.FormatWorldfile} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, result(t, coverage), Options{Format: format}))
			assert.Equal(t, "10\n0\n0\n-10\n500000\n4649776\n", buf.String())
		})
	}
}

// TestRender_WorldfileMalformed verifies that a missing transform fails
// without writing anything.
func TestRender_WorldfileMalformed(t *testing.T) {
	gml := strings.Replace(coverage, "<gml:offsetVector>0 -10</gml:offsetVector>", "", 1)

	var buf bytes.Buffer
	err := Render(&buf, result(t, gml), Options{Format: model.FormatTFW})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedAffine)
	assert.Empty(t, buf.String())
}

// TestRender_Tree verifies the XML and JSON renderings in both formattings.
func TestRender_Tree(t *testing.T) {
	res := result(t, `<r><b>2</b><a>1</a></r>`)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"xml raw", Options{Format: model.FormatXML, Formatting: model.FormattingRaw}, "<r><b>2</b><a>1</a></r>\n"},
		{"xml pretty", Options{Format: model.FormatXML, Formatting: model.FormattingPretty},
			`<?xml version="1.0" encoding="UTF-8"?>` + "\n<r>\n  <b>2</b>\n  <a>1</a>\n</r>\n"},
		{"json raw", Options{Format: model.FormatJSON, Formatting: model.FormattingRaw}, `{"r":{"b":"2","a":"1"}}` + "\n"},
		{"json pretty", Options{Format: model.FormatJSON}, "{\n  \"r\": {\n    \"a\": \"1\",\n    \"b\": \"2\"\n  }\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, res, tt.opts))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// TestRender_UnknownFormat verifies the format check.
func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, result(t, coverage), Options{Format: "png"})
	assert.ErrorIs(t, err, model.ErrUnknownFormat)
}

// TestBuildInfo verifies field values and the independent Unknown
// fallbacks.
func TestBuildInfo(t *testing.T) {
	info := BuildInfo(result(t, coverage), "ortho", nil)

	expect := map[string]string{
		"Image Name":                     "ortho",
		"Source Name":                    "EPSG:3067",
		"GML File Name":                  model.Unknown,
		"Rectified Grid Coverage ID":     "2",
		"Upper Corner Coordinates":       "100 200",
		"Area Size in Square Kilometers": "0.02",
		"Grid Envelope High":             model.Unknown,
		"X-axis Pixel Size in Map Units": "10",
		"Y-axis Pixel Size in Map Units": "-10",
		"Upper Left Pixel Y-coordinate Center in Map Units": "4649776",
	}
	for label, want := range expect {
		got, ok := info.Get(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}
	assert.Len(t, info.Fields, 20)
	assert.Equal(t, "Image Name", info.Fields[0].Label)
}

// TestBuildInfo_AffineUnknown verifies that a failed transform only
// affects the affine fields.
func TestBuildInfo_AffineUnknown(t *testing.T) {
	gml := strings.Replace(coverage, "<gml:offsetVector>0 -10</gml:offsetVector>", "", 1)
	info := BuildInfo(result(t, gml), "", nil)

	got, _ := info.Get("X-axis Pixel Size in Map Units")
	assert.Equal(t, model.Unknown, got)
	got, _ = info.Get("Image Name")
	assert.Equal(t, model.Unknown, got)
	got, _ = info.Get("X-axis Length in Meters")
	assert.Equal(t, "100.00", got)
}

var details = &refsys.Details{
	Code:              3067,
	Datum:             "European Terrestrial Reference System 1989",
	Ellipsoid:         "GRS 1980",
	CoordinateSystem:  "ETRS89 / TM35FIN(E,N)",
	Axis1Abbrev:       "E",
	Axis1Direction:    "East",
	Axis2Abbrev:       model.Unknown,
	Axis2Direction:    model.Unknown,
	SemiMajorAxis:     "6378137",
	InverseFlattening: "298.257222101",
}

// TestBuildInfo_CRS verifies the appended reference-system fields.
func TestBuildInfo_CRS(t *testing.T) {
	info := BuildInfo(result(t, coverage), "ortho", details)

	assert.Len(t, info.Fields, 28)
	got, _ := info.Get("EPSG Code")
	assert.Equal(t, "3067", got)
	got, _ = info.Get("Axis 1")
	assert.Equal(t, "E (East)", got)
	got, _ = info.Get("Axis 2")
	assert.Equal(t, model.Unknown, got)

	assert.Equal(t, info.Fields[20:], CRSInfo(details).Fields)
}

// TestInfo_WriteText verifies the aligned table layout.
func TestInfo_WriteText(t *testing.T) {
	info := Info{Fields: []Field{{"A", "1"}, {"Longer", "2"}}}

	var buf bytes.Buffer
	require.NoError(t, info.WriteText(&buf))
	assert.Equal(t, "A:       1\nLonger:  2\n", buf.String())
}

// TestRender_InfoJSON verifies the structured info output.
func TestRender_InfoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, result(t, coverage), Options{Format: model.FormatInfo, ImageName: "ortho", JSON: true}))

	var decoded Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Fields, 20)
	assert.Equal(t, Field{Label: "Image Name", Value: "ortho"}, decoded.Fields[0])
}

// TestImageName covers the display name derivation.
func TestImageName(t *testing.T) {
	assert.Equal(t, "ortho", ImageName("/data/ortho.jp2"))
	assert.Equal(t, "map", ImageName("map.tile.jp2"))
	assert.Equal(t, "plain", ImageName("plain"))
	assert.Equal(t, model.Unknown, ImageName(".hidden"))
}
