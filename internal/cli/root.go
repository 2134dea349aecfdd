// Package cli implements the cobra-based command line interface of jp2gml.
//
// The root command extracts GML metadata from a JP2 file and renders it
// (extract.go). Subcommands resolve reference systems (crs), show how a
// file was scanned (inspect) and print build information (version). This
// file defines the root command, the global flags shared by every
// subcommand, and the error and log output helpers.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/jp2gml/internal/config"
	"github.com/shinji-kodama/jp2gml/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput switches errors, info summaries and subcommand output
	// to JSON.
	jsonOutput bool

	// verbose enables progress output on stderr.
	verbose bool

	// configPath is the explicit --config file.
	configPath string

	// cacheDir overrides the reference-system cache directory.
	cacheDir string

	// timeout overrides the reference-system download timeout.
	timeout time.Duration
)

// errOut receives warnings, verbose output and errors. stdout stays
// reserved for rendered results.
var errOut io.Writer = os.Stderr

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Without arguments it prints help. With an input file and an output
// format it runs the extraction.
func NewRootCommand() *cobra.Command {
	flags := &extractFlags{}

	rootCmd := &cobra.Command{
		Use:   "jp2gml [flags] [input.jp2]",
		Short: "Extract GML georeferencing metadata from JPEG 2000 files",
		Long: `jp2gml extracts the GML block embedded in a JPEG 2000 (JP2) image and
writes it as XML or JSON, as a worldfile (.tfw), or as a summary of the
georeferencing parameters.

Examples:
  jp2gml -i ortho.jp2 -f xml
  jp2gml -i ortho.jp2 -f json -l raw -o ortho.json.zst
  jp2gml -i ortho.jp2 -f tfw -o ortho.tfw
  jp2gml -f info --resolve-crs ortho.jp2`,

		Args: cobra.MaximumNArgs(1),

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 && len(args) == 0 {
				return cmd.Help()
			}
			if len(args) == 1 {
				if flags.input != "" && flags.input != args[0] {
					return model.NewCLIError(model.ExitUsage, "input given both as -i and as argument")
				}
				flags.input = args[0]
			}
			return runExtract(cmd, flags)
		},
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output errors and summaries in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $"+config.EnvVar+" or ./.jp2gml.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for cached reference-system definitions")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Download timeout for reference-system definitions (default 10s)")

	flags.register(rootCmd)

	// Flag parsing errors are usage errors.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.WrapCLIError(model.ExitUsage, "invalid flags", err)
	})

	rootCmd.AddCommand(NewCRSCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit code; any other error is mapped
// through model.ExitCodeFor.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitCodeFor(err)))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// rendered output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(errOut, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(errOut, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(errOut, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(errOut, "[verbose] "+format+"\n", args...)
	}
}

// Warn prints a warning to stderr. Warnings never change the exit code.
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(errOut, "Warning: "+format+"\n", args...)
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig locates and validates the config file, then applies the
// global flags that override it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	cfg := config.Defaults()
	if path := config.Locate(configPath, cwd); path != "" {
		VerboseLog("Using config file %s", path)
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = timeout.String()
	}
	if cfg.Verbose && !cmd.Flags().Changed("verbose") {
		verbose = true
	}
	return cfg, nil
}

// validateConfig turns validation failures into one usage error.
func validateConfig(cfg *config.Config) error {
	errs := cfg.Validate()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Field + ": " + e.Message
	}
	return model.NewCLIError(model.ExitUsage, "invalid configuration: "+strings.Join(msgs, "; "))
}
