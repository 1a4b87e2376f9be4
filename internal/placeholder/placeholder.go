// Package placeholder holds the token to value mapping applied to templates
// and the literal substitution over paragraph text.
package placeholder

import (
	"regexp"
	"strings"
)

type Bracket string

const (
	Angle Bracket = "angle" // <<Name>>
	Curly Bracket = "curly" // {name}
)

func (b Bracket) Wrap(name string) string {
	if b == Curly {
		return "{" + name + "}"
	}
	return "<<" + name + ">>"
}

func (b Bracket) Valid() bool {
	return b == Angle || b == Curly
}

// Map is an insertion-ordered token to value mapping. The order decides
// which token wins when two tokens could match at the same position.
type Map struct {
	keys   []string
	values map[string]string
}

func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Set ignores empty tokens. Setting an existing token keeps its position.
func (m *Map) Set(token, value string) {
	if token == "" {
		return
	}
	if _, ok := m.values[token]; !ok {
		m.keys = append(m.keys, token)
	}
	m.values[token] = value
}

func (m *Map) Get(token string) (string, bool) {
	v, ok := m.values[token]
	return v, ok
}

func (m *Map) Delete(token string) {
	if _, ok := m.values[token]; !ok {
		return
	}
	delete(m.values, token)
	for i, k := range m.keys {
		if k == token {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Merge sets every entry of other onto m in other's order.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
}

// Values returns a copy of the mapping, used when persisting the data a
// document was generated from.
func (m *Map) Values() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Resolver applies a Map to text. It is built once per document so the
// replacer is not rebuilt for every paragraph.
type Resolver struct {
	replacer *strings.Replacer
	empty    bool
}

func NewResolver(m *Map) *Resolver {
	if m == nil || m.Len() == 0 {
		return &Resolver{empty: true}
	}
	pairs := make([]string, 0, 2*m.Len())
	for _, k := range m.keys {
		pairs = append(pairs, k, m.values[k])
	}
	return &Resolver{replacer: strings.NewReplacer(pairs...)}
}

// Resolve replaces every token occurrence in a single left-to-right pass.
// Replacement values are never scanned again, so a value that looks like a
// token stays literal. The bool reports whether text changed.
func (r *Resolver) Resolve(text string) (string, bool) {
	if r.empty || text == "" {
		return text, false
	}
	out := r.replacer.Replace(text)
	return out, out != text
}

func Resolve(text string, m *Map) string {
	out, _ := NewResolver(m).Resolve(text)
	return out
}

var tokenPattern = regexp.MustCompile(`<<[^<>\r\n]+>>|\{[A-Za-z0-9_]+\}`)

// Extract returns the distinct tokens found in text, in order of first appearance.
func Extract(text string) []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
