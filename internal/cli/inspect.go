package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/pipeline"
	"github.com/shinji-kodama/jp2gml/internal/render"
)

// inspectReport describes how a file went through the pipeline stages.
type inspectReport struct {
	File         string `json:"file"`
	Size         int    `json:"size"`
	Lines        int    `json:"lines"`
	Signature    string `json:"signature"`
	Marker       string `json:"marker"`
	StartLine    int    `json:"startLine"`
	EndLine      int    `json:"endLine"`
	KeptLines    int    `json:"keptLines"`
	DroppedLines int    `json:"droppedLines"`
	Tokens       int    `json:"tokens"`
	Root         string `json:"root"`
	ParseError   string `json:"parseError,omitempty"`
	AffineError  string `json:"affineError,omitempty"`
	SRSName      string `json:"srsName,omitempty"`
	Metrics      string `json:"metrics,omitempty"`
}

// NewInspectCommand creates the "inspect" subcommand, which reports the
// intermediate results of each stage instead of rendering the metadata.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.jp2>",
		Short: "Show where and how the metadata block was found",
		Long: `Run the extraction stages on a file and report what each produced: the
container signature, the marker and line range of the metadata block,
how many lines decoded, the root element and whether the georeference
could be derived.

A malformed block is reported, not treated as an error. Files without a
JP2 signature or without a metadata block fail as they do when
extracting.

Examples:
  jp2gml inspect ortho.jp2
  jp2gml inspect ortho.jp2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
	return cmd
}

// runInspect executes the inspect command.
func runInspect(cmd *cobra.Command, path string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return model.WrapCLIError(model.ExitCodeFor(err), fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	p := pipeline.New(pipeline.WithLogger(VerboseLog))
	c, err := p.Load(f)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to read %s", path), err)
	}

	report := inspectReport{File: path, Size: c.Size(), Lines: c.Len()}
	sig, rng, err := p.Scan(c)
	if err != nil {
		return model.WrapCLIError(model.ExitCodeFor(err), fmt.Sprintf("failed to inspect %s", path), err)
	}
	report.Signature = sig
	report.Marker = rng.Marker
	report.StartLine = rng.Start
	report.EndLine = rng.End

	text := p.Decode(c, rng)
	report.KeptLines = text.Kept
	report.DroppedLines = text.Dropped
	report.Tokens = len(text.Tokens)
	report.Root = text.Root

	if root, err := p.Parse(text); err != nil {
		report.ParseError = err.Error()
	} else {
		geo := p.Derive(root)
		if geo.AffineErr != nil {
			report.AffineError = geo.AffineErr.Error()
		}
		report.SRSName = geo.SRSName
		report.Metrics = geo.Metrics.Source
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return writeInspectJSON(out, report)
	}
	return reportInfo(report).WriteText(out)
}

// reportInfo lays the report out as a labelled table.
func reportInfo(r inspectReport) render.Info {
	status := func(errText string) string {
		if errText == "" {
			return "ok"
		}
		return errText
	}

	fields := []render.Field{
		{Label: "File", Value: r.File},
		{Label: "Size", Value: strconv.Itoa(r.Size) + " bytes"},
		{Label: "Lines", Value: strconv.Itoa(r.Lines)},
		{Label: "Signature", Value: r.Signature},
		{Label: "Marker", Value: r.Marker},
		{Label: "Block Lines", Value: fmt.Sprintf("[%d, %d)", r.StartLine, r.EndLine)},
		{Label: "Decoded Lines", Value: fmt.Sprintf("%d kept, %d dropped", r.KeptLines, r.DroppedLines)},
		{Label: "Tokens", Value: strconv.Itoa(r.Tokens)},
		{Label: "Root Element", Value: orUnknown(r.Root)},
		{Label: "Parse", Value: status(r.ParseError)},
	}
	if r.ParseError == "" {
		fields = append(fields,
			render.Field{Label: "Affine Transform", Value: status(r.AffineError)},
			render.Field{Label: "Reference System", Value: r.SRSName},
			render.Field{Label: "Extent Source", Value: orUnknown(r.Metrics)},
		)
	}
	return render.Info{Fields: fields}
}

func writeInspectJSON(w io.Writer, r inspectReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}
