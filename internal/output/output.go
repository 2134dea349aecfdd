// Package output opens the destination of rendered results.
//
// A destination is either standard output or a file. Files are written to
// a temporary sibling first and renamed into place on Close, so readers
// never observe a partial result. The file extension selects an optional
// compressor.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the compressor applied to a file destination.
type Compression int

const (
	CompNone Compression = iota
	CompGzip
	CompZstd
	CompBrotli
	CompLZ4
)

// String returns the conventional file extension without the dot, or
// "none".
func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompGzip:
		return "gz"
	case CompZstd:
		return "zst"
	case CompBrotli:
		return "br"
	case CompLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// DetectCompression picks the compressor from the extension of path.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompGzip
	case ".zst":
		return CompZstd
	case ".br":
		return CompBrotli
	case ".lz4":
		return CompLZ4
	default:
		return CompNone
	}
}

// IsStdout reports whether path designates standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-"
}

// Function variables for testing injection.
var (
	stdout        io.Writer = os.Stdout
	newZstdWriter           = func(w io.Writer) (*zstd.Encoder, error) { return zstd.NewWriter(w) }
	createTemp              = os.CreateTemp
	rename                  = os.Rename
)

// Sink is an open destination.
type Sink struct {
	w    io.Writer
	comp io.WriteCloser
	tmp  *os.File
	path string
	done bool
}

// Open returns a Sink for path. An empty path or "-" writes to standard
// output, which Close leaves open. Missing parent directories are created.
func Open(path string) (*Sink, error) {
	if IsStdout(path) {
		return &Sink{w: stdout, path: "-"}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := createTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}

	s := &Sink{w: tmp, tmp: tmp, path: path}
	if err := tmp.Chmod(0o644); err != nil {
		_ = s.Abort()
		return nil, fmt.Errorf("failed to set permissions on %s: %w", tmp.Name(), err)
	}
	switch DetectCompression(path) {
	case CompGzip:
		s.comp = gzip.NewWriter(tmp)
	case CompZstd:
		enc, err := newZstdWriter(tmp)
		if err != nil {
			_ = s.Abort()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		s.comp = enc
	case CompBrotli:
		s.comp = brotli.NewWriter(tmp)
	case CompLZ4:
		s.comp = lz4.NewWriter(tmp)
	}
	if s.comp != nil {
		s.w = s.comp
	}
	return s, nil
}

// Path returns the final destination, "-" for standard output.
func (s *Sink) Path() string {
	return s.path
}

// Write writes p through the compressor, if any.
func (s *Sink) Write(p []byte) (int, error) {
	if s.done {
		return 0, os.ErrClosed
	}
	return s.w.Write(p)
}

// Close flushes the compressor and moves the file into place. On failure
// the temporary file is removed and the destination is left untouched.
func (s *Sink) Close() error {
	if s.done {
		return nil
	}
	if s.tmp == nil {
		s.done = true
		return nil
	}
	if s.comp != nil {
		if err := s.comp.Close(); err != nil {
			_ = s.Abort()
			return fmt.Errorf("failed to flush %s: %w", s.path, err)
		}
	}
	if err := s.tmp.Close(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	if err := rename(s.tmp.Name(), s.path); err != nil {
		_ = s.Abort()
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.done = true
	return nil
}

// Abort discards everything written so far. It is a no-op after a
// successful Close.
func (s *Sink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.tmp == nil {
		return nil
	}
	_ = s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteFileAtomic writes data to path through a temporary sibling file,
// creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	s, err := Open(path)
	if err != nil {
		return err
	}
	if _, err := s.Write(data); err != nil {
		_ = s.Abort()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return s.Close()
}
