package model

import (
	"errors"
	"io/fs"
)

// Stage failures. Scanner, decoder, tree adapter and deriver wrap these
// with fmt.Errorf("%w: ...") so callers can test them with errors.Is.
var (
	ErrContainerFormat  = errors.New("jp2gml: not a JPEG2000 container")
	ErrBoundaryNotFound = errors.New("jp2gml: metadata block not found")
	ErrTreeParse        = errors.New("jp2gml: malformed embedded markup")
	ErrMalformedAffine  = errors.New("jp2gml: malformed worldfile metadata")
	ErrUnknownFormat    = errors.New("jp2gml: unknown output format")
)

// ExitCodeFor maps an error onto the exit code the CLI reports for it.
// Errors outside the stage taxonomy map to ExitGeneralError.
func ExitCodeFor(err error) ExitCode {
	var cliErr *CLIError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.Is(err, ErrContainerFormat):
		return ExitNotJP2
	case errors.Is(err, ErrBoundaryNotFound):
		return ExitNoMetadata
	case errors.Is(err, ErrTreeParse):
		return ExitMalformedGML
	case errors.Is(err, ErrMalformedAffine):
		return ExitMalformedAffine
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ExitInputNotFound
	case errors.Is(err, ErrUnknownFormat):
		return ExitUsage
	default:
		return ExitGeneralError
	}
}
