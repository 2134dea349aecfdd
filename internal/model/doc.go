// Package model defines the shared value types and error taxonomy for the
// jp2gml CLI.
//
// This package contains pure data structures with no external dependencies.
// It defines the output format selectors (OutputFormat, Formatting), the
// sentinel errors raised by the extraction stages, exit codes (ExitCode) and
// a custom error type (CLIError) that carries an exit code for proper OS
// process exit handling.
package model
