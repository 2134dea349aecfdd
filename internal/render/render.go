// Package render turns a pipeline result into one of the output formats:
// the metadata tree as XML or JSON, a worldfile, or a labelled summary.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/pipeline"
	"github.com/shinji-kodama/jp2gml/internal/refsys"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// Options selects what Render writes.
type Options struct {
	Format     model.OutputFormat
	Formatting model.Formatting

	// ImageName is shown in the info summary.
	ImageName string

	// CRS adds reference-system fields to the info summary when set.
	CRS *refsys.Details

	// JSON writes the info summary as JSON instead of a text table.
	JSON bool
}

// Render writes res to w in the requested format, followed by a newline.
// The worldfile format fails with model.ErrMalformedAffine when the affine
// transform could not be derived; nothing is written in that case.
func Render(w io.Writer, res *pipeline.Result, opts Options) error {
	pretty := opts.Formatting != model.FormattingRaw

	var err error
	switch {
	case opts.Format == model.FormatXML:
		err = tree.EncodeXML(w, res.Tree, pretty)
	case opts.Format == model.FormatJSON:
		err = tree.EncodeJSON(w, res.Tree, pretty)
	case opts.Format.IsWorldfile():
		if res.Geo.AffineErr != nil {
			return res.Geo.AffineErr
		}
		_, err = io.WriteString(w, res.Geo.Affine.Worldfile())
	case opts.Format == model.FormatInfo:
		info := BuildInfo(res, opts.ImageName, opts.CRS)
		if opts.JSON {
			return info.WriteJSON(w)
		}
		return info.WriteText(w)
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownFormat, opts.Format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// ImageName derives the display name of an input path: the base name up
// to its first dot.
func ImageName(path string) string {
	base := filepath.Base(path)
	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		return model.Unknown
	}
	return name
}
