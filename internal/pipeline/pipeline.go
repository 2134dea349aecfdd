// Package pipeline wires the extraction stages together.
//
// Each stage is a method with a typed input and a typed output, so tests
// can drive any single stage from an in-memory container without touching
// the filesystem:
//
//	Load    io.Reader        -> *scan.Container
//	Scan    *scan.Container  -> scan.Range
//	Decode  scan.Range       -> gmltext.Text
//	Parse   gmltext.Text     -> *tree.Node
//	Derive  *tree.Node       -> georef.Georeference
//
// Run executes them in order. Container, boundary and parse failures abort
// the run; affine failures are carried in the result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/shinji-kodama/jp2gml/internal/georef"
	"github.com/shinji-kodama/jp2gml/internal/gmltext"
	"github.com/shinji-kodama/jp2gml/internal/scan"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// DefaultMaxInputSize caps the bytes buffered from one input.
const DefaultMaxInputSize int64 = 2 << 30 // 2 GiB

// Logf receives progress messages. It is never nil inside a Pipeline.
type Logf func(format string, args ...any)

// Pipeline runs the extraction stages with a fixed configuration.
// It holds no per-run state and may be reused.
type Pipeline struct {
	scanner      *scan.Scanner
	maxInputSize int64
	logf         Logf
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScanner replaces the default GML-in-JP2 scanner.
func WithScanner(s *scan.Scanner) Option {
	return func(p *Pipeline) { p.scanner = s }
}

// WithMarkers keeps the default signatures but scans for other markers.
func WithMarkers(m scan.MarkerSet) Option {
	return func(p *Pipeline) {
		s := *p.scanner
		s.Markers = m
		p.scanner = &s
	}
}

// WithMaxInputSize sets the largest input Load accepts. Zero, a negative
// size or math.MaxInt64 disables the cap.
func WithMaxInputSize(n int64) Option {
	return func(p *Pipeline) { p.maxInputSize = n }
}

// WithLogger routes progress messages to f.
func WithLogger(f Logf) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.logf = f
		}
	}
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		scanner:      scan.NewScanner(),
		maxInputSize: DefaultMaxInputSize,
		logf:         func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is everything one run produces.
type Result struct {
	Signature string
	Range     scan.Range
	Text      gmltext.Text
	Tree      *tree.Node
	Geo       georef.Georeference

	// Size is the input size in bytes.
	Size int
}

// Load buffers r into a container.
func (p *Pipeline) Load(r io.Reader) (*scan.Container, error) {
	limited := p.maxInputSize > 0 && p.maxInputSize < math.MaxInt64
	if limited {
		r = io.LimitReader(r, p.maxInputSize+1)
	}
	c, err := scan.ReadContainer(r)
	if err != nil {
		return nil, err
	}
	if limited && int64(c.Size()) > p.maxInputSize {
		return nil, fmt.Errorf("input exceeds %d bytes", p.maxInputSize)
	}
	p.logf("loaded %d bytes in %d lines", c.Size(), c.Len())
	return c, nil
}

// Scan checks the signature and locates the metadata block.
func (p *Pipeline) Scan(c *scan.Container) (string, scan.Range, error) {
	sig, err := p.scanner.CheckSignature(c)
	if err != nil {
		return "", scan.Range{}, err
	}
	p.logf("signature %q found", sig)

	r, err := p.scanner.Locate(c)
	if err != nil {
		return sig, scan.Range{}, err
	}
	p.logf("metadata block %q spans lines [%d, %d)", r.Marker, r.Start, r.End)
	return sig, r, nil
}

// Decode extracts the text fragment of the block.
func (p *Pipeline) Decode(c *scan.Container, r scan.Range) gmltext.Text {
	t := gmltext.Decode(c, r)
	p.logf("decoded %d tokens (%d lines kept, %d dropped), root element %q",
		len(t.Tokens), t.Kept, t.Dropped, t.Root)
	return t
}

// Parse builds the tree from the decoded text.
func (p *Pipeline) Parse(t gmltext.Text) (*tree.Node, error) {
	return tree.Parse(t.Fragment)
}

// Derive computes the georeference of a tree.
func (p *Pipeline) Derive(root *tree.Node) georef.Georeference {
	g := georef.Derive(root)
	if g.AffineErr != nil {
		p.logf("affine transform unavailable: %v", g.AffineErr)
	}
	if !g.Metrics.Known() {
		p.logf("bounding box metrics unavailable")
	}
	return g
}

// Run executes every stage on r. The context is checked between stages.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Result, error) {
	c, err := p.Load(r)
	if err != nil {
		return nil, err
	}
	return p.RunContainer(ctx, c)
}

// RunContainer executes every stage after Load on an existing container.
func (p *Pipeline) RunContainer(ctx context.Context, c *scan.Container) (*Result, error) {
	res := &Result{Size: c.Size()}

	var err error
	if res.Signature, res.Range, err = p.Scan(c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Text = p.Decode(c, res.Range)
	if res.Tree, err = p.Parse(res.Text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Geo = p.Derive(res.Tree)
	return res, nil
}

// RunFile opens path and runs every stage on its content.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Run(ctx, f)
}
