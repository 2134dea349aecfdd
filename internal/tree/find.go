package tree

import (
	"iter"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
)

// FindKey returns a lazy depth-first sequence of the values stored under
// key anywhere in root.
//
// Lists are walked element by element. For an object, the values of
// matching members are yielded first; a sibling group yields each sibling
// as a separate occurrence. The walk then descends into every member value
// in document order. The sequence is the same on every iteration.
//
// A member key matches when it equals key. When key carries neither a
// prefix nor a leading '@', a member also matches if its local name does,
// so "pos" finds "gml:pos" and "srsName" finds "@srsName".
func FindKey(root *Node, key string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		walk(root, key, yield)
	}
}

// walk reports false once yield asked to stop.
func walk(n *Node, key string, yield func(*Node) bool) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindList:
		for _, item := range n.Items {
			if !walk(item, key, yield) {
				return false
			}
		}
	case KindObject:
		for _, m := range n.Members {
			if !matchKey(m.Key, key) {
				continue
			}
			if m.Value.Kind == KindList && m.Value.Siblings {
				for _, item := range m.Value.Items {
					if !yield(item) {
						return false
					}
				}
				continue
			}
			if !yield(m.Value) {
				return false
			}
		}
		for _, m := range n.Members {
			if !walk(m.Value, key, yield) {
				return false
			}
		}
	}
	return true
}

// matchKey reports whether member key satisfies query.
func matchKey(key, query string) bool {
	if key == query {
		return true
	}
	if query == "" || strings.HasPrefix(query, AttrPrefix) || strings.Contains(query, ":") {
		return false
	}
	return LocalName(key) == query
}

// LocalName strips a leading '@' and any namespace prefix from key.
func LocalName(key string) string {
	key = strings.TrimPrefix(key, AttrPrefix)
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// Lookup returns occurrence n (0-based) of key in root.
func Lookup(root *Node, key string, n int) (*Node, bool) {
	if n < 0 {
		return nil, false
	}
	i := 0
	for v := range FindKey(root, key) {
		if i == n {
			return v, true
		}
		i++
	}
	return nil, false
}

// LookupText returns the character data of occurrence n of key.
func LookupText(root *Node, key string, n int) (string, bool) {
	v, ok := Lookup(root, key, n)
	if !ok {
		return "", false
	}
	return v.TextValue()
}

// LookupOrUnknown is LookupText with every failure mapped to model.Unknown.
func LookupOrUnknown(root *Node, key string, n int) string {
	if s, ok := LookupText(root, key, n); ok {
		return s
	}
	return model.Unknown
}
