package gmltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/jp2gml/internal/scan"
)

// scanned builds a container from raw content and scans it with the
// default scanner.
func scanned(t *testing.T, raw string) (*scan.Container, scan.Range) {
	t.Helper()
	c := scan.NewContainer([]byte(raw))
	r, err := scan.NewScanner().Scan(c)
	require.NoError(t, err)
	return c, r
}

const sampleContainer = "\x00\x00\x00\x0cjP  \r\n" +
	"\x87\n\x00\x00\x00\x14ftypjp2 \x00\x00\x00\x00jp2 \n" +
	"\xff\x4f\xff\x51 codestream \xfe\xfe\n" +
	"\x00\x00\x00\x12lbl gml.data\x00\x00asoc\x00<gml:FeatureCollection xmlns:gml=\"http://www.opengis.net/gml\">\n" +
	"\xc3\x28 broken line\n" +
	"  <gml:boundedBy>\n" +
	"    <gml:Envelope srsName=\"EPSG:3067\">\n" +
	"      <gml:lowerCorner>0 0</gml:lowerCorner>\n" +
	"      <gml:upperCorner>100 200</gml:upperCorner>\n" +
	"    </gml:Envelope>\n" +
	"  </gml:boundedBy>\n" +
	"</gml:FeatureCollection>\x00\x00\n" +
	"\x00\x00\x00\x18uuid\xbe\x7a\xcf\xcb\n"

// TestDecode_Sample verifies the end-to-end decoding of a realistic block.
func TestDecode_Sample(t *testing.T) {
	c, r := scanned(t, sampleContainer)

	text := Decode(c, r)

	assert.Equal(t, "gml:FeatureCollection", text.Root)
	assert.True(t, strings.HasPrefix(text.Fragment, "<gml:FeatureCollection "))
	assert.True(t, strings.HasSuffix(text.Fragment, "</gml:FeatureCollection>"))
	assert.Contains(t, text.Fragment, "<gml:upperCorner>100 200</gml:upperCorner>")
	assert.NotContains(t, text.Fragment, "broken line")
	assert.Equal(t, 1, text.Dropped)
	assert.False(t, text.IsEmpty())
}

// TestDecode_Idempotent verifies that decoding the same range twice yields
// identical text.
func TestDecode_Idempotent(t *testing.T) {
	c, r := scanned(t, sampleContainer)

	first := Decode(c, r)
	second := Decode(c, r)
	assert.Equal(t, first, second)
}

// TestDecode_NoTags verifies an empty result when nothing tag-like decodes.
func TestDecode_NoTags(t *testing.T) {
	c, r := scanned(t, "jp2\ngml.data plain\nno tags here\nuuid\n")

	text := Decode(c, r)
	assert.True(t, text.IsEmpty())
	assert.Empty(t, text.Tokens)
}

// TestTrimToTags covers the leading and trailing trim.
func TestTrimToTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"junk<a>x</a>junk", "<a>x</a>"},
		{"<a/>", "<a/>"},
		{"no tags", ""},
		{"> reversed <", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimToTags(tt.in))
		})
	}
}

// TestRealign verifies that stray prefix tokens before the root opener are
// dropped.
func TestRealign(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		want     []string
		wantRoot string
	}{
		{
			name:     "dangling parent fragment",
			tokens:   []string{"<asoc>", "junk>", "<gml:A", "x=\"1\">", "<b>2</b>", "</gml:A>"},
			want:     []string{"<gml:A", "x=\"1\">", "<b>2</b>", "</gml:A>"},
			wantRoot: "gml:A",
		},
		{
			name:     "already aligned",
			tokens:   []string{"<root>", "<x>1</x>", "</root>"},
			want:     []string{"<root>", "<x>1</x>", "</root>"},
			wantRoot: "root",
		},
		{
			name:     "prefix sharing names is not an opener",
			tokens:   []string{"<rootish>", "<root>", "</root>"},
			want:     []string{"<root>", "</root>"},
			wantRoot: "root",
		},
		{
			name:     "self closing root",
			tokens:   []string{"noise>", "<root/>"},
			want:     []string{"<root/>"},
			wantRoot: "root",
		},
		{
			name:     "no opener keeps tokens",
			tokens:   []string{"<a>", "</b>"},
			want:     []string{"<a>", "</b>"},
			wantRoot: "b",
		},
		{
			name:     "no tags",
			tokens:   []string{"plain", "text"},
			want:     []string{"plain", "text"},
			wantRoot: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, root := Realign(tt.tokens)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRoot, root)
		})
	}
}

// TestDecode_StartLineTokenIsPrepended checks that the first token of the
// start line is decoded on its own, ahead of the full start line.
func TestDecode_StartLineTokenIsPrepended(t *testing.T) {
	c := scan.NewContainer([]byte("jp2\n<pre>gml.data <r>\n</r>\nuuid\n"))
	r, err := scan.NewScanner().Scan(c)
	require.NoError(t, err)

	text := Decode(c, r)
	assert.Equal(t, 3, text.Kept)
	assert.Equal(t, "<r> </r>", text.Fragment)
}
