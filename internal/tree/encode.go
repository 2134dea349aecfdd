package tree

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"
)

// EncodeJSON writes root as JSON. The raw form is compact and keeps
// document order. The pretty form is indented by two spaces with object
// keys sorted.
func EncodeJSON(w io.Writer, root *Node, pretty bool) error {
	var buf bytes.Buffer
	writeJSON(&buf, root, pretty)

	out := buf.Bytes()
	if pretty {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", "  "); err != nil {
			return fmt.Errorf("failed to indent JSON: %w", err)
		}
		out = indented.Bytes()
	}
	_, err := w.Write(out)
	return err
}

func writeJSON(buf *bytes.Buffer, n *Node, sorted bool) {
	if n == nil {
		buf.WriteString("null")
		return
	}
	switch n.Kind {
	case KindScalar:
		writeJSONString(buf, n.Text)
	case KindList:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, item, sorted)
		}
		buf.WriteByte(']')
	case KindObject:
		members := n.Members
		if sorted {
			members = slices.Clone(members)
			slices.SortStableFunc(members, func(a, b Member) int {
				return strings.Compare(a.Key, b.Key)
			})
		}
		buf.WriteByte('{')
		for i, m := range members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, m.Key)
			buf.WriteByte(':')
			writeJSON(buf, m.Value, sorted)
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
}

// writeJSONString writes s as a JSON string without HTML escaping, so
// markup characters inside values stay readable.
func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends '\n'
}

// EncodeXML writes root back as XML. Root must be an object such as the
// one returned by Parse. The pretty form starts with an XML declaration and
// indents nested elements by two spaces; the raw form is a single line.
func EncodeXML(w io.Writer, root *Node, pretty bool) error {
	if root == nil || root.Kind != KindObject {
		return fmt.Errorf("cannot encode %s node as an XML document", kindOf(root))
	}
	if pretty {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}

	enc := xml.NewEncoder(w)
	if pretty {
		enc.Indent("", "  ")
	}
	for _, m := range root.Members {
		if err := encodeElement(enc, m.Key, m.Value); err != nil {
			return err
		}
	}
	return enc.Close()
}

func encodeElement(enc *xml.Encoder, name string, n *Node) error {
	if n != nil && n.Kind == KindList {
		for _, item := range n.Items {
			if err := encodeElement(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	var children []Member
	var text *string

	switch {
	case n == nil || n.Kind == KindNull:
	case n.Kind == KindScalar:
		text = &n.Text
	case n.Kind == KindObject:
		for _, m := range n.Members {
			switch {
			case m.Key == TextKey:
				if s, ok := m.Value.TextValue(); ok {
					text = &s
				}
			case strings.HasPrefix(m.Key, AttrPrefix):
				s, _ := m.Value.TextValue()
				start.Attr = append(start.Attr, xml.Attr{
					Name:  xml.Name{Local: strings.TrimPrefix(m.Key, AttrPrefix)},
					Value: s,
				})
			default:
				children = append(children, m)
			}
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range children {
		if err := encodeElement(enc, child.Key, child.Value); err != nil {
			return err
		}
	}
	if text != nil {
		if err := enc.EncodeToken(xml.CharData(*text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func kindOf(n *Node) string {
	if n == nil {
		return "nil"
	}
	return n.Kind.String()
}
