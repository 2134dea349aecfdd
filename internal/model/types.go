// Package model defines the shared types for the jp2gml CLI.
//
// Every stage of the extraction pipeline (scan, decode, parse, derive) and
// every renderer passes values defined here, so the package stays free of
// any dependency on the other internal packages.
package model

import (
	"fmt"
	"strings"
)

// Unknown is the sentinel text rendered for any field whose value could not
// be looked up or derived.
const Unknown = "Unknown"

// OutputFormat selects how the extracted metadata is rendered.
type OutputFormat string

const (
	// FormatXML re-serializes the embedded GML tree as XML.
	FormatXML OutputFormat = "xml"

	// FormatJSON serializes the GML tree as JSON.
	FormatJSON OutputFormat = "json"

	// FormatTFW writes the six-line worldfile.
	FormatTFW OutputFormat = "tfw"

	// FormatWorldfile is an alias of FormatTFW.
	FormatWorldfile OutputFormat = "worldfile"

	// FormatInfo prints the labelled summary of the georeference.
	FormatInfo OutputFormat = "info"
)

// String returns the string representation of OutputFormat.
func (f OutputFormat) String() string {
	return string(f)
}

// IsValid checks whether the OutputFormat value is one of the
// predefined formats.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatXML, FormatJSON, FormatTFW, FormatWorldfile, FormatInfo:
		return true
	default:
		return false
	}
}

// IsWorldfile reports whether the format renders the affine transform.
func (f OutputFormat) IsWorldfile() bool {
	return f == FormatTFW || f == FormatWorldfile
}

// ParseOutputFormat converts a string to an OutputFormat.
// Returns an error wrapping ErrUnknownFormat for unrecognized values.
func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: xml, json, tfw, worldfile, info)", ErrUnknownFormat, s)
	}
	return format, nil
}

// Formatting controls whitespace in the xml and json renderings.
type Formatting string

const (
	// FormattingPretty indents nested elements.
	FormattingPretty Formatting = "pretty"

	// FormattingRaw emits compact output.
	FormattingRaw Formatting = "raw"
)

// String returns the string representation of Formatting.
func (f Formatting) String() string {
	return string(f)
}

// IsValid checks whether the Formatting value is pretty or raw.
func (f Formatting) IsValid() bool {
	return f == FormattingPretty || f == FormattingRaw
}

// ParseFormatting converts a string to a Formatting.
func ParseFormatting(s string) (Formatting, error) {
	formatting := Formatting(strings.ToLower(strings.TrimSpace(s)))
	if !formatting.IsValid() {
		return "", fmt.Errorf("%w: formatting %q (valid: raw, pretty)", ErrUnknownFormat, s)
	}
	return formatting, nil
}

// ExitCode defines the CLI exit codes. Each structural failure of the
// extraction pipeline has its own code so scripts can tell them apart.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitNotJP2 indicates the input carries no JP2-family signature.
	ExitNotJP2 ExitCode = 2

	// ExitNoMetadata indicates no GML block could be delimited.
	ExitNoMetadata ExitCode = 3

	// ExitMalformedGML indicates the embedded markup could not be parsed.
	ExitMalformedGML ExitCode = 4

	// ExitMalformedAffine indicates the worldfile could not be derived.
	ExitMalformedAffine ExitCode = 5

	// ExitInputNotFound indicates the input file is missing or unreadable.
	ExitInputNotFound ExitCode = 6

	// ExitUsage indicates invalid flags or configuration.
	ExitUsage ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
