// Package gmltext turns the delimited line range of a JP2 container into a
// clean GML text fragment.
//
// Lines inside the range are decoded one by one as strict UTF-8. Lines that
// fail (binary box payloads, padding) are dropped without aborting the
// batch. The surviving text is trimmed to the outermost tag characters and
// then realigned on the root element, because line splitting can leave
// fragments of parent boxes dangling in front of the real root.
package gmltext

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/shinji-kodama/jp2gml/internal/scan"
)

// Text is the decoded metadata fragment.
type Text struct {
	// Fragment is the token sequence re-joined with single spaces. It is
	// empty or begins with '<' and ends with '>'.
	Fragment string

	// Tokens is the whitespace-delimited token sequence Fragment was built
	// from, after root realignment.
	Tokens []string

	// Root is the element name the token sequence was realigned on. Empty
	// when no closing tag could be identified.
	Root string

	// Kept and Dropped count the candidate lines that decoded and failed.
	Kept    int
	Dropped int
}

// IsEmpty reports whether no tag content survived decoding.
func (t Text) IsEmpty() bool {
	return t.Fragment == ""
}

// Decode extracts the text fragment for r from c. It never fails: an empty
// Text means nothing in the range decoded to tag content. Decoding the same
// range twice yields identical results.
func Decode(c *scan.Container, r scan.Range) Text {
	var out Text
	var sb strings.Builder

	candidates := make([][]byte, 0, r.Len()+1)
	if fields := bytes.Fields(r.StartLine); len(fields) > 0 {
		candidates = append(candidates, fields[0])
	}
	candidates = append(candidates, c.Lines(r.Start, r.End)...)

	for _, line := range candidates {
		if !validUTF8(line) {
			out.Dropped++
			continue
		}
		out.Kept++
		sb.Write(line)
	}

	trimmed := TrimToTags(sb.String())
	out.Tokens, out.Root = Realign(strings.Fields(trimmed))
	out.Fragment = strings.Join(out.Tokens, " ")
	return out
}

// validUTF8 reports whether line decodes as strict UTF-8.
func validUTF8(line []byte) bool {
	_, _, err := transform.Bytes(encoding.UTF8Validator, line)
	return err == nil
}

// TrimToTags removes everything before the first '<' and after the last
// '>'. The result is empty when s holds no complete tag span.
func TrimToTags(s string) string {
	first := strings.IndexByte(s, '<')
	last := strings.LastIndexByte(s, '>')
	if first < 0 || last < first {
		return ""
	}
	return s[first : last+1]
}

// Realign drops stray prefix tokens. The last token that looks like a tag
// names the root element; the sequence restarts at the first token opening
// that element. When no tag or no matching opener exists the tokens are
// returned unchanged.
func Realign(tokens []string) ([]string, string) {
	root := ""
	for i := len(tokens) - 1; i >= 0; i-- {
		if isTag(tokens[i]) {
			root = tagName(tokens[i])
			break
		}
	}
	if root == "" {
		return tokens, ""
	}
	for i, tok := range tokens {
		if opens(tok, root) {
			return tokens[i:], root
		}
	}
	return tokens, root
}

// isTag reports whether tok starts a tag and contains its closing bracket.
func isTag(tok string) bool {
	return strings.HasPrefix(tok, "<") && strings.Contains(tok, ">")
}

// tagName extracts the element name from an opening, closing or
// self-closing tag token.
func tagName(tok string) string {
	name := strings.TrimLeft(tok[1:], "/")
	if i := strings.IndexAny(name, ">/"); i >= 0 {
		name = name[:i]
	}
	return name
}

// opens reports whether tok is an opening tag for element name.
func opens(tok, name string) bool {
	prefix := "<" + name
	if !strings.HasPrefix(tok, prefix) {
		return false
	}
	rest := tok[len(prefix):]
	return rest == "" || rest[0] == '>' || rest[0] == '/'
}
