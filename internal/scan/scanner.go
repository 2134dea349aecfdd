package scan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
)

// headerLines is the number of leading raw lines searched for a signature.
const headerLines = 3

// DefaultSignatures are the JP2-family strings accepted in the file header.
var DefaultSignatures = []string{"ftypjp2", "jp2 jpx", "jp2", "jp2h", "jp2 J2P1"}

// MarkerSet is an ordered set of start markers (any of them opens the
// metadata block) and the single end marker that closes it.
type MarkerSet struct {
	Start []string
	End   string
}

// DefaultMarkers returns the markers of the GML-in-JP2 convention.
func DefaultMarkers() MarkerSet {
	return MarkerSet{
		Start: []string{"gml.data", "gxml", "fxml"},
		End:   "uuid",
	}
}

// Match is the outcome of a marker search: which marker matched, on which
// 0-based line, and the raw content of that line.
type Match struct {
	Marker string
	Index  int
	Line   []byte
}

// Range is the half-open line range [Start, End) of the metadata block.
// StartLine holds the raw line on which the start marker was found.
type Range struct {
	Start     int
	End       int
	Marker    string
	StartLine []byte
}

// Len returns the number of lines in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Scanner finds the metadata block boundaries in a Container.
//
// The zero value is not usable; create scanners with NewScanner so the
// default signatures and markers are set.
type Scanner struct {
	Signatures []string
	Markers    MarkerSet
}

// NewScanner creates a Scanner for the GML-in-JP2 convention.
func NewScanner() *Scanner {
	return &Scanner{
		Signatures: DefaultSignatures,
		Markers:    DefaultMarkers(),
	}
}

// CheckSignature verifies that the first three lines of c, decoded lossily
// and joined, contain at least one JP2 signature. It returns the first
// signature found, in the order of s.Signatures.
func (s *Scanner) CheckSignature(c *Container) (string, error) {
	var header strings.Builder
	for _, line := range c.Lines(0, headerLines) {
		header.WriteString(LossyString(line))
	}
	text := header.String()
	for _, sig := range s.Signatures {
		if strings.Contains(text, sig) {
			return sig, nil
		}
	}
	return "", fmt.Errorf("%w: no JP2 signature in the first %d lines", model.ErrContainerFormat, headerLines)
}

// FindStart returns the first line containing any of the start markers.
// When a line contains several markers, the one listed first wins.
func (s *Scanner) FindStart(c *Container) (Match, bool) {
	return findFirst(c, s.Markers.Start)
}

// FindEnd returns the first line containing the end marker. The search
// always begins at line 0, independent of where the start marker was found.
func (s *Scanner) FindEnd(c *Container) (Match, bool) {
	return findFirst(c, []string{s.Markers.End})
}

// Scan runs the signature check and both marker searches and returns the
// metadata range. The container is only read.
func (s *Scanner) Scan(c *Container) (Range, error) {
	if _, err := s.CheckSignature(c); err != nil {
		return Range{}, err
	}
	return s.Locate(c)
}

// Locate runs both marker searches without the signature check.
func (s *Scanner) Locate(c *Container) (Range, error) {
	start, ok := s.FindStart(c)
	if !ok {
		return Range{}, fmt.Errorf("%w: no start marker (%s)", model.ErrBoundaryNotFound,
			strings.Join(s.Markers.Start, ", "))
	}

	end, ok := s.FindEnd(c)
	if !ok {
		return Range{}, fmt.Errorf("%w: no end marker (%s)", model.ErrBoundaryNotFound, s.Markers.End)
	}

	if start.Index >= end.Index {
		return Range{}, fmt.Errorf("%w: start marker on line %d is not before end marker on line %d",
			model.ErrBoundaryNotFound, start.Index, end.Index)
	}

	return Range{
		Start:     start.Index,
		End:       end.Index,
		Marker:    start.Marker,
		StartLine: start.Line,
	}, nil
}

// findFirst scans c sequentially from line 0 and stops at the first line
// containing one of markers.
func findFirst(c *Container, markers []string) (Match, bool) {
	needles := make([][]byte, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			needles = append(needles, []byte(m))
		}
	}
	for i := 0; i < c.Len(); i++ {
		line := c.Line(i)
		for _, needle := range needles {
			if bytes.Contains(line, needle) {
				return Match{Marker: string(needle), Index: i, Line: line}, true
			}
		}
	}
	return Match{}, false
}
