package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/pipeline"
	"github.com/shinji-kodama/jp2gml/internal/refsys"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// Field is one labelled line of the info summary.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Info is the ordered info summary. Every field falls back to
// model.Unknown on its own.
type Info struct {
	Fields []Field `json:"fields"`
}

// Get returns the value of the field labelled label.
func (i Info) Get(label string) (string, bool) {
	for _, f := range i.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// BuildInfo collects the summary fields of res. Reference-system fields
// are appended when crs is not nil.
func BuildInfo(res *pipeline.Result, imageName string, crs *refsys.Details) Info {
	root := res.Tree
	g := res.Geo
	lookup := func(key string) string { return tree.LookupOrUnknown(root, key, 0) }
	if imageName == "" {
		imageName = model.Unknown
	}

	info := Info{Fields: []Field{
		{"Image Name", imageName},
		{"Source Name", g.SRSName},
		{"GML File Name", lookup("fileName")},
		{"File Structure", lookup("fileStructure")},
		{"Rectified Grid Coverage ID", lookup("dimension")},
		{"Upper Corner Coordinates", lookup("upperCorner")},
		{"Lower Corner Coordinates", lookup("lowerCorner")},
		{"X-axis Length in Meters", g.Metrics.XLength},
		{"Y-axis Length in Meters", g.Metrics.YLength},
		{"Area Size in Square Kilometers", g.Metrics.AreaKm2},
		{"Distance of Corner Points in Meters", g.Metrics.Hypotenuse},
		{"Azimuth Angle of Corner Points in Gradians", g.Metrics.Azimuth},
		{"Grid Envelope High", lookup("high")},
		{"Grid Envelope Low", lookup("low")},
		{"X-axis Pixel Size in Map Units", g.AffineField(g.Affine.PixelSizeX)},
		{"Y-axis Pixel Size in Map Units", g.AffineField(g.Affine.PixelSizeY)},
		{"X-axis Rotation", g.AffineField(g.Affine.RotationX)},
		{"Y-axis Rotation", g.AffineField(g.Affine.RotationY)},
		{"Upper Left Pixel X-coordinate Center in Map Units", g.AffineField(g.Affine.OriginX)},
		{"Upper Left Pixel Y-coordinate Center in Map Units", g.AffineField(g.Affine.OriginY)},
	}}

	if crs != nil {
		info.Fields = append(info.Fields, crsFields(crs)...)
	}
	return info
}

// CRSInfo builds a summary holding only reference-system fields.
func CRSInfo(crs *refsys.Details) Info {
	return Info{Fields: crsFields(crs)}
}

func crsFields(crs *refsys.Details) []Field {
	return []Field{
		{"EPSG Code", strconv.Itoa(crs.Code)},
		{"Datum", crs.Datum},
		{"Ellipsoid", crs.Ellipsoid},
		{"Coordinate System", crs.CoordinateSystem},
		{"Axis 1", axis(crs.Axis1Abbrev, crs.Axis1Direction)},
		{"Axis 2", axis(crs.Axis2Abbrev, crs.Axis2Direction)},
		{"Semi-major Axis", crs.SemiMajorAxis},
		{"Inverse Flattening", crs.InverseFlattening},
	}
}

func axis(abbrev, direction string) string {
	if abbrev == model.Unknown && direction == model.Unknown {
		return model.Unknown
	}
	return fmt.Sprintf("%s (%s)", abbrev, direction)
}

// WriteText writes the summary as a two-column table.
func (i Info) WriteText(w io.Writer) error {
	width := 0
	for _, f := range i.Fields {
		width = max(width, len(f.Label)+1)
	}
	for _, f := range i.Fields {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, f.Label+":", f.Value); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the summary as an indented JSON object.
func (i Info) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
