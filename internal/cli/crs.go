package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/render"
)

// crsFlags holds the flag values for the crs command.
type crsFlags struct {
	// offline restricts the lookup to the cache directory.
	offline bool
}

// NewCRSCommand creates the "crs" subcommand, which prints the details of
// a reference system without reading an image.
func NewCRSCommand() *cobra.Command {
	flags := &crsFlags{}

	cmd := &cobra.Command{
		Use:   "crs <code>",
		Short: "Show the details of a reference system",
		Long: `Look up a reference system by its numeric code and print its datum,
ellipsoid, coordinate system and axes.

The definition is read from the cache directory, or downloaded and cached
when it is not there yet. The code may be given bare or with a prefix
such as "EPSG:" or "urn:ogc:def:crs:EPSG::".

Examples:
  jp2gml crs 3067
  jp2gml crs EPSG:4326 --json
  jp2gml crs 3067 --offline --cache-dir ./epsg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCRS(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.offline, "offline", false, "Only use cached definitions")

	return cmd
}

// runCRS resolves and prints one reference system.
func runCRS(cmd *cobra.Command, arg string, flags *crsFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	code, err := parseCode(arg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	resolver.Offline = flags.offline

	VerboseLog("Resolving reference system %d (cache: %s)", code, cfg.CacheDir)
	details, err := resolver.Resolve(ctx, code)
	if err != nil {
		return model.WrapCLIError(
			model.ExitCodeFor(err),
			fmt.Sprintf("failed to resolve reference system %d", code),
			err,
		)
	}

	info := render.CRSInfo(details)
	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return info.WriteJSON(out)
	}
	return info.WriteText(out)
}

// parseCode accepts "3067", "EPSG:3067" or a URN ending in the code.
func parseCode(arg string) (int, error) {
	s := strings.TrimSpace(arg)
	s = s[strings.LastIndexByte(s, ':')+1:]
	code, err := strconv.Atoi(s)
	if err != nil || code <= 0 {
		return 0, model.NewCLIError(model.ExitUsage, fmt.Sprintf("invalid reference system code %q", arg))
	}
	return code, nil
}
