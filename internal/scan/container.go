package scan

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Container is an immutable, line-indexed view of a whole input file.
//
// A line ends after each '\n' byte and keeps it. Trailing bytes without a
// newline form the last line. Binary data inside a JP2 file produces lines
// of arbitrary length; none of them are interpreted until a stage asks.
type Container struct {
	data  []byte
	lines [][]byte
}

// NewContainer indexes data. The slice is retained, not copied, and must not
// be modified afterwards.
func NewContainer(data []byte) *Container {
	c := &Container{data: data}
	for rest := data; len(rest) > 0; {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			c.lines = append(c.lines, rest)
			break
		}
		c.lines = append(c.lines, rest[:i+1:i+1])
		rest = rest[i+1:]
	}
	return c
}

// ReadContainer buffers r completely and indexes it.
func ReadContainer(r io.Reader) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	return NewContainer(data), nil
}

// ReadContainerFile reads the container stored at path.
func ReadContainerFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewContainer(data), nil
}

// Len returns the number of raw lines.
func (c *Container) Len() int {
	return len(c.lines)
}

// Line returns raw line i, including its trailing newline.
// Out of range indices yield nil.
func (c *Container) Line(i int) []byte {
	if i < 0 || i >= len(c.lines) {
		return nil
	}
	return c.lines[i]
}

// Lines returns raw lines [start, end), clamped to the container.
func (c *Container) Lines(start, end int) [][]byte {
	start = max(start, 0)
	end = min(end, len(c.lines))
	if start >= end {
		return nil
	}
	return c.lines[start:end]
}

// Size returns the container size in bytes.
func (c *Container) Size() int {
	return len(c.data)
}

// dropInvalid removes every byte that is not part of a valid UTF-8 sequence.
var dropInvalid = runes.Remove(runes.Predicate(func(r rune) bool {
	return r == utf8.RuneError
}))

// LossyString decodes b as UTF-8, silently dropping undecodable bytes.
func LossyString(b []byte) string {
	out, _, err := transform.Bytes(dropInvalid, b)
	if err != nil {
		return ""
	}
	return string(out)
}
