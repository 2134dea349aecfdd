package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the numeric-bearing content of a node, classified once when it
// leaves the tree so callers never inspect node shapes themselves.
type Value interface {
	// Tokens returns the numeric tokens of the value.
	Tokens() []string
}

// NumericList is a value that is already a sequence of components, such as
// a group of sibling elements each holding one number.
type NumericList []string

// Tokens returns the list itself.
func (l NumericList) Tokens() []string {
	return l
}

// RawText is free text that still has to be tokenized.
type RawText string

// Tokens splits the text with SplitNumeric.
func (t RawText) Tokens() []string {
	return SplitNumeric(string(t))
}

// ValueOf classifies n. Text-bearing nodes become RawText; lists become a
// NumericList holding the tokens of every text-bearing item in order. It
// reports false when n carries no text at all.
func ValueOf(n *Node) (Value, bool) {
	if n == nil {
		return nil, false
	}
	if n.Kind == KindList {
		var list NumericList
		found := false
		for _, item := range n.Items {
			if s, ok := item.TextValue(); ok {
				list = append(list, SplitNumeric(s)...)
				found = true
			}
		}
		return list, found
	}
	if s, ok := n.TextValue(); ok {
		return RawText(s), true
	}
	return nil, false
}

// SplitNumeric splits s on every run of characters other than ASCII
// digits, '.' and '-'. Empty tokens are dropped.
func SplitNumeric(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == '-')
	})
}

// Floats parses every token of v as a float64.
func Floats(v Value) ([]float64, error) {
	tokens := v.Tokens()
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok, err)
		}
		out = append(out, f)
	}
	return out, nil
}
