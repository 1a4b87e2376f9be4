package docmodel

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one item of an element's content.
type Node interface {
	writeTo(b *bytes.Buffer)
}

// Element keeps the exact bytes it was parsed from. As long as nothing below
// it changes it is written back from those bytes, so markup this package
// does not understand survives a round trip unchanged.
type Element struct {
	Name     string // qualified as written, e.g. "w:p"
	Attr     []xml.Attr
	Children []Node

	parent *Element
	raw    []byte
}

type CharData struct {
	Value string
	raw   []byte
}

// Markup is a comment, processing instruction or directive, kept verbatim.
type Markup struct {
	raw []byte
}

// Document is a parsed XML part.
type Document struct {
	top *Element
}

func Parse(data []byte) (*Document, error) {
	top, err := parseNodes(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{top: top}
	if doc.Root() == nil {
		return nil, errors.New("xml has no root element")
	}
	return doc, nil
}

// ParseFragment parses a sequence of sibling nodes. Prefixes do not need to
// be declared inside the fragment.
func ParseFragment(s string) ([]Node, error) {
	top, err := parseNodes([]byte("<fragment>" + s + "</fragment>"))
	if err != nil {
		return nil, err
	}
	holder := top.Elements()[0]
	nodes := holder.Children
	for _, n := range nodes {
		if e, ok := n.(*Element); ok {
			e.parent = nil
		}
	}
	return nodes, nil
}

func parseNodes(data []byte) (*Element, error) {
	top := &Element{}
	stack := []*Element{top}
	var starts []int64

	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		start := d.InputOffset()
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}
		end := d.InputOffset()
		parent := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			e := &Element{
				Name:   qualify(t.Name),
				Attr:   append([]xml.Attr(nil), t.Attr...),
				parent: parent,
			}
			parent.Children = append(parent.Children, e)
			stack = append(stack, e)
			starts = append(starts, start)
		case xml.EndElement:
			if len(stack) == 1 || parent.Name != qualify(t.Name) {
				return nil, fmt.Errorf("failed to parse xml: unexpected </%s>", qualify(t.Name))
			}
			parent.raw = data[starts[len(starts)-1]:end]
			stack = stack[:len(stack)-1]
			starts = starts[:len(starts)-1]
		case xml.CharData:
			parent.Children = append(parent.Children, &CharData{Value: string(t), raw: data[start:end]})
		default:
			parent.Children = append(parent.Children, &Markup{raw: data[start:end]})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("failed to parse xml: <%s> is not closed", stack[len(stack)-1].Name)
	}
	return top, nil
}

func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (d *Document) Root() *Element {
	for _, e := range d.top.Elements() {
		return e
	}
	return nil
}

func (d *Document) Bytes() []byte {
	var b bytes.Buffer
	for _, n := range d.top.Children {
		n.writeTo(&b)
	}
	return b.Bytes()
}

// NewElement builds a detached element. Attribute names may carry a prefix.
func NewElement(name string, attrs ...xml.Attr) *Element {
	return &Element{Name: name, Attr: attrs}
}

func NewAttr(name, value string) xml.Attr {
	var n xml.Name
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		n = xml.Name{Space: prefix, Local: local}
	} else {
		n = xml.Name{Local: name}
	}
	return xml.Attr{Name: n, Value: value}
}

func NewText(s string) *CharData {
	return &CharData{Value: s}
}

func (e *Element) Parent() *Element {
	if e.parent == nil || e.parent.Name == "" {
		return nil
	}
	return e.parent
}

func (e *Element) Is(name string) bool {
	return e != nil && e.Name == name
}

// Elements returns the child elements in document order.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) Child(name string) *Element {
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok && c.Name == name {
			return c
		}
	}
	return nil
}

func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) AttrValue(name string) (string, bool) {
	for _, a := range e.Attr {
		if qualify(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attr {
		if qualify(a.Name) == name {
			if a.Value == value {
				return
			}
			e.Attr[i].Value = value
			e.touch()
			return
		}
	}
	e.Attr = append(e.Attr, NewAttr(name, value))
	e.touch()
}

// InnerText joins the character data of every descendant.
func (e *Element) InnerText() string {
	var b strings.Builder
	e.innerText(&b)
	return b.String()
}

func (e *Element) innerText(b *strings.Builder) {
	for _, n := range e.Children {
		switch c := n.(type) {
		case *CharData:
			b.WriteString(c.Value)
		case *Element:
			c.innerText(b)
		}
	}
}

func (e *Element) Append(nodes ...Node) {
	e.Insert(len(e.Children), nodes...)
}

func (e *Element) Insert(i int, nodes ...Node) {
	for _, n := range nodes {
		if c, ok := n.(*Element); ok {
			c.parent = e
		}
	}
	e.Children = append(e.Children[:i], append(append([]Node(nil), nodes...), e.Children[i:]...)...)
	e.touch()
}

func (e *Element) Remove(n Node) bool {
	i := e.Index(n)
	if i < 0 {
		return false
	}
	e.Children = append(e.Children[:i], e.Children[i+1:]...)
	if c, ok := n.(*Element); ok {
		c.parent = nil
	}
	e.touch()
	return true
}

func (e *Element) Replace(old, n Node) bool {
	i := e.Index(old)
	if i < 0 {
		return false
	}
	if c, ok := old.(*Element); ok {
		c.parent = nil
	}
	if c, ok := n.(*Element); ok {
		c.parent = e
	}
	e.Children[i] = n
	e.touch()
	return true
}

// SetChildren replaces the whole content of e.
func (e *Element) SetChildren(nodes ...Node) {
	e.Children = nil
	e.Append(nodes...)
}

func (e *Element) Index(n Node) int {
	for i, c := range e.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Clone returns a detached deep copy of e.
func (e *Element) Clone() *Element {
	c := &Element{
		Name: e.Name,
		Attr: append([]xml.Attr(nil), e.Attr...),
		raw:  e.raw,
	}
	for _, n := range e.Children {
		switch v := n.(type) {
		case *Element:
			child := v.Clone()
			child.parent = c
			c.Children = append(c.Children, child)
		case *CharData:
			c.Children = append(c.Children, &CharData{Value: v.Value, raw: v.raw})
		default:
			c.Children = append(c.Children, n)
		}
	}
	return c
}

// Walk visits e and its descendants depth first. Returning false from fn
// skips the children of that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Elements() {
		c.Walk(fn)
	}
}

// Modified reports whether e will be written from its parts instead of its
// original bytes.
func (e *Element) Modified() bool {
	return e.raw == nil
}

// touch drops the cached bytes of e and of every ancestor.
func (e *Element) touch() {
	for x := e; x != nil && x.raw != nil; x = x.parent {
		x.raw = nil
	}
}

func (e *Element) Bytes() []byte {
	var b bytes.Buffer
	e.writeTo(&b)
	return b.Bytes()
}

func (e *Element) writeTo(b *bytes.Buffer) {
	if e.raw != nil {
		b.Write(e.raw)
		return
	}
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attr {
		b.WriteByte(' ')
		b.WriteString(qualify(a.Name))
		b.WriteString(`="`)
		xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}
	if len(e.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, n := range e.Children {
		n.writeTo(b)
	}
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteByte('>')
}

func (c *CharData) writeTo(b *bytes.Buffer) {
	if c.raw != nil {
		b.Write(c.raw)
		return
	}
	xml.EscapeText(b, []byte(c.Value))
}

func (m *Markup) writeTo(b *bytes.Buffer) {
	b.Write(m.raw)
}
