package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/jp2gml/internal/config"
	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/output"
	"github.com/shinji-kodama/jp2gml/internal/pipeline"
	"github.com/shinji-kodama/jp2gml/internal/refsys"
	"github.com/shinji-kodama/jp2gml/internal/render"
)

// extractFlags holds the flag values of the root (extract) command.
type extractFlags struct {
	// input is the JP2 file to read (-i).
	input string

	// format is the output format (-f).
	format string

	// output is the destination file (-o). Empty means stdout.
	output string

	// formatting is pretty or raw (-l).
	formatting string

	// resolveCRS adds reference-system details to the info output.
	resolveCRS bool
}

// register binds the extract flags to cmd.
func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input JP2 file")
	cmd.Flags().StringVarP(&f.format, "dataformat", "f", "", "Output format: xml, json, tfw, worldfile, info")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file; .gz, .zst, .br and .lz4 compress (default: stdout)")
	cmd.Flags().StringVarP(&f.formatting, "formatting", "l", "", "Formatting of xml and json output: pretty, raw (default: pretty)")
	cmd.Flags().BoolVar(&f.resolveCRS, "resolve-crs", false, "Add reference-system details to the info output")
}

// runExtract executes the extraction. The flow is:
//  1. Load the config file and apply flag overrides
//  2. Check that an input and a format are known
//  3. Run the pipeline on the input file
//  4. Resolve the reference system when requested (info only)
//  5. Render into the output sink, discarding partial output on failure
func runExtract(cmd *cobra.Command, flags *extractFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, flags, cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if cfg.Format == "" {
		return model.NewCLIError(model.ExitUsage, "no output format given (use -f xml|json|tfw|worldfile|info)")
	}
	if flags.input == "" {
		return model.NewCLIError(model.ExitUsage, "no input file given (use -i <file.jp2>)")
	}
	format, err := model.ParseOutputFormat(cfg.Format)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid output format", err)
	}
	formatting, err := model.ParseFormatting(cfg.Formatting)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid formatting", err)
	}

	if !strings.HasSuffix(strings.ToLower(flags.input), ".jp2") {
		Warn("input file %s does not have a .jp2 extension", flags.input)
	}

	VerboseLog("Extracting %s as %s (%s)", flags.input, format, formatting)
	res, err := pipeline.New(pipeline.WithLogger(VerboseLog)).RunFile(ctx, flags.input)
	if err != nil {
		return model.WrapCLIError(
			model.ExitCodeFor(err),
			fmt.Sprintf("failed to extract metadata from %s", flags.input),
			err,
		)
	}

	opts := render.Options{
		Format:     format,
		Formatting: formatting,
		ImageName:  render.ImageName(flags.input),
		JSON:       IsJSONOutput(),
	}
	if format == model.FormatInfo && cfg.ResolveCRS {
		opts.CRS = resolveCRS(ctx, cfg, res)
	}

	return writeOutput(flags.output, res, opts)
}

// applyExtractFlags copies explicitly set flags over the config values.
func applyExtractFlags(cmd *cobra.Command, flags *extractFlags, cfg *config.Config) {
	if cmd.Flags().Changed("dataformat") {
		cfg.Format = flags.format
	}
	if cmd.Flags().Changed("formatting") {
		cfg.Formatting = flags.formatting
	}
	if cmd.Flags().Changed("resolve-crs") {
		cfg.ResolveCRS = flags.resolveCRS
	}
}

// resolveCRS looks up the reference system of res. Failures are reported
// as warnings and yield nil, so the summary is still written.
func resolveCRS(ctx context.Context, cfg *config.Config, res *pipeline.Result) *refsys.Details {
	if !res.Geo.HasSRS {
		Warn("no reference system code in %q; skipping lookup", res.Geo.SRSName)
		return nil
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		Warn("%v", err)
		return nil
	}
	details, err := resolver.Resolve(ctx, res.Geo.SRSCode)
	if err != nil {
		Warn("failed to resolve reference system %d: %v", res.Geo.SRSCode, err)
		return nil
	}
	if details.Cached {
		VerboseLog("Reference system %d read from %s", details.Code, resolver.CachePath(details.Code))
	} else {
		VerboseLog("Reference system %d downloaded to %s", details.Code, resolver.CachePath(details.Code))
	}
	return details
}

// newResolver builds a Resolver from the effective configuration.
func newResolver(cfg *config.Config) (*refsys.Resolver, error) {
	d, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitUsage, "invalid timeout", err)
	}
	r := refsys.NewResolver(cfg.CacheDir)
	if cfg.BaseURL != "" {
		r.BaseURL = cfg.BaseURL
	}
	if cfg.UserAgent != "" {
		r.UserAgent = cfg.UserAgent
	}
	r.Timeout = d
	return r, nil
}

// writeOutput renders into the destination. A file destination only
// appears once rendering succeeded.
func writeOutput(path string, res *pipeline.Result, opts render.Options) error {
	sink, err := output.Open(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to open output", err)
	}

	if err := render.Render(sink, res, opts); err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			err = errors.Join(err, abortErr)
		}
		return model.WrapCLIError(
			model.ExitCodeFor(err),
			fmt.Sprintf("failed to write %s output", opts.Format),
			err,
		)
	}
	if err := sink.Close(); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to write %s", sink.Path()), err)
	}
	if !output.IsStdout(path) {
		VerboseLog("Wrote %s (%s)", sink.Path(), output.DetectCompression(path))
	}
	return nil
}
