// Package refsys resolves reference-system codes to their defining
// parameters (datum, ellipsoid, axes).
//
// Definitions are GML documents named "<code>.xml". A Resolver reads them
// from its cache directory and falls back to downloading them from the
// registry, storing the download for later runs.
package refsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shinji-kodama/jp2gml/internal/output"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

const (
	// DefaultBaseURL is the registry definitions are downloaded from.
	DefaultBaseURL = "http://epsg.io/"

	// DefaultUserAgent identifies downloads to the registry.
	DefaultUserAgent = "jp2gml (+https://github.com/shinji-kodama/jp2gml)"

	// DefaultTimeout bounds one download.
	DefaultTimeout = 10 * time.Second

	// maxDocumentSize caps a downloaded definition.
	maxDocumentSize = 8 << 20
)

// Details are the reference-system fields shown next to the image
// metadata. Fields missing from the definition are model.Unknown.
type Details struct {
	Code              int    `json:"code"`
	Datum             string `json:"datum"`
	Ellipsoid         string `json:"ellipsoid"`
	CoordinateSystem  string `json:"coordinateSystem"`
	Axis1Abbrev       string `json:"axis1Abbrev"`
	Axis1Direction    string `json:"axis1Direction"`
	Axis2Abbrev       string `json:"axis2Abbrev"`
	Axis2Direction    string `json:"axis2Direction"`
	SemiMajorAxis     string `json:"semiMajorAxis"`
	InverseFlattening string `json:"inverseFlattening"`

	// Cached is set when the definition came from the cache directory.
	Cached bool `json:"cached"`
}

// Resolver fetches and caches reference-system definitions.
type Resolver struct {
	CacheDir   string
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Offline restricts lookups to the cache directory.
	Offline bool
}

// NewResolver creates a Resolver caching into cacheDir with the default
// registry settings.
func NewResolver(cacheDir string) *Resolver {
	return &Resolver{
		CacheDir:   cacheDir,
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		Timeout:    DefaultTimeout,
		HTTPClient: http.DefaultClient,
	}
}

// CachePath returns the cache file for code.
func (r *Resolver) CachePath(code int) string {
	return filepath.Join(r.CacheDir, strconv.Itoa(code)+".xml")
}

// Resolve returns the details for code, downloading the definition when
// it is not cached yet.
func (r *Resolver) Resolve(ctx context.Context, code int) (*Details, error) {
	doc, cached, err := r.Document(ctx, code)
	if err != nil {
		return nil, err
	}
	d, err := Extract(code, doc)
	if err != nil {
		return nil, err
	}
	d.Cached = cached
	return d, nil
}

// Document returns the raw definition for code and whether it came from
// the cache. Only downloads that parse as markup are cached. A cached file
// that no longer parses is removed and downloaded again, unless the
// resolver is offline.
func (r *Resolver) Document(ctx context.Context, code int) ([]byte, bool, error) {
	if code <= 0 {
		return nil, false, fmt.Errorf("invalid reference system code %d", code)
	}

	path := r.CachePath(code)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		perr := checkDocument(code, data)
		if perr == nil {
			return data, true, nil
		}
		if r.Offline {
			return nil, false, fmt.Errorf("cached %s: %w", path, perr)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to remove stale cache file %s: %w", path, err)
		}
	}
	if r.Offline {
		return nil, false, fmt.Errorf("definition %d is not cached in %s: %w", code, r.CacheDir, fs.ErrNotExist)
	}

	data, err := r.download(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if err := checkDocument(code, data); err != nil {
		return nil, false, err
	}
	if err := output.WriteFileAtomic(path, data); err != nil {
		return nil, false, fmt.Errorf("failed to cache definition %d: %w", code, err)
	}
	return data, false, nil
}

// checkDocument reports whether doc parses as a single markup tree.
func checkDocument(code int, doc []byte) error {
	if _, err := tree.Parse(string(doc)); err != nil {
		return fmt.Errorf("definition %d: %w", code, err)
	}
	return nil
}

func (r *Resolver) download(ctx context.Context, code int) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	url := base + strconv.Itoa(code) + ".xml"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("failed to download %s: response exceeds %d bytes", url, maxDocumentSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to download %s: empty response", url)
	}
	return data, nil
}

// Extract reads the details out of a definition document.
func Extract(code int, doc []byte) (*Details, error) {
	root, err := tree.Parse(string(doc))
	if err != nil {
		return nil, fmt.Errorf("definition %d: %w", code, err)
	}
	return &Details{
		Code:              code,
		Datum:             tree.LookupOrUnknown(root, "gml:datumName", 0),
		Ellipsoid:         tree.LookupOrUnknown(root, "gml:ellipsoidName", 0),
		CoordinateSystem:  tree.LookupOrUnknown(root, "gml:srsName", 0),
		Axis1Abbrev:       tree.LookupOrUnknown(root, "gml:axisAbbrev", 0),
		Axis1Direction:    capitalize(tree.LookupOrUnknown(root, "gml:axisDirection", 0)),
		Axis2Abbrev:       tree.LookupOrUnknown(root, "gml:axisAbbrev", 1),
		Axis2Direction:    capitalize(tree.LookupOrUnknown(root, "gml:axisDirection", 1)),
		SemiMajorAxis:     tree.LookupOrUnknown(root, "gml:semiMajorAxis", 0),
		InverseFlattening: tree.LookupOrUnknown(root, "gml:inverseFlattening", 0),
	}, nil
}

// capitalize upper-cases the first letter and lower-cases the rest, turning
// registry spellings such as "north-east" into "North-east".
func capitalize(s string) string {
	lower := cases.Lower(language.Und).String(s)
	_, size := utf8.DecodeRuneInString(lower)
	return cases.Upper(language.Und).String(lower[:size]) + lower[size:]
}
