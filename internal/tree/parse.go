package tree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
)

// frame is an element whose end tag has not been seen yet.
type frame struct {
	name string
	node *Node
	text strings.Builder
}

// finish collapses the frame into its final node shape.
func (f *frame) finish() *Node {
	text := strings.TrimSpace(f.text.String())
	if len(f.node.Members) == 0 {
		if text == "" {
			return Null()
		}
		return Scalar(text)
	}
	if text != "" {
		f.node.Members = append(f.node.Members, Member{Key: TextKey, Value: Scalar(text)})
	}
	return f.node
}

// Parse converts a GML fragment into a tree. The returned node is an object
// with a single member: the root element.
//
// Element and attribute names are kept exactly as written. Namespace
// prefixes are not resolved, so "gml:pos" stays "gml:pos" whatever URI the
// prefix is bound to. Unbalanced tags, invalid characters and content
// outside the root element fail with model.ErrTreeParse.
func Parse(text string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true

	root := Object()
	var stack []*frame
	seenRoot := false

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrTreeParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && seenRoot {
				return nil, fmt.Errorf("%w: second root element <%s>", model.ErrTreeParse, qualify(t.Name))
			}
			f := &frame{name: qualify(t.Name), node: Object()}
			for _, a := range t.Attr {
				f.node.add(AttrPrefix+qualify(a.Name), Scalar(a.Value))
			}
			stack = append(stack, f)
			seenRoot = true

		case xml.EndElement:
			name := qualify(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end tag </%s>", model.ErrTreeParse, name)
			}
			f := stack[len(stack)-1]
			if name != f.name {
				return nil, fmt.Errorf("%w: element <%s> closed by </%s>", model.ErrTreeParse, f.name, name)
			}
			stack = stack[:len(stack)-1]
			parent := root
			if len(stack) > 0 {
				parent = stack[len(stack)-1].node
			}
			parent.add(f.name, f.finish())

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside the root element", model.ErrTreeParse)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: element <%s> is never closed", model.ErrTreeParse, stack[len(stack)-1].name)
	}
	if !seenRoot {
		return nil, fmt.Errorf("%w: no root element", model.ErrTreeParse)
	}
	return root, nil
}

// qualify joins a raw name back into its written "prefix:local" form.
func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
