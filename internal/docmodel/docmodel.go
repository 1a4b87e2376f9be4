// Package docmodel reads and edits word/document.xml in place. Paragraphs,
// runs and cells are plain elements of a lossless XML tree, and the helpers
// here only touch the markup they are asked to change.
package docmodel

import (
	"strconv"
	"strings"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
)

const VerticalCenter = "center"

// Format is the readable part of a run's w:rPr. Empty strings and false
// mean "not set on the run".
type Format struct {
	Font   string
	Size   string // half-points, as stored in w:sz
	Bold   bool
	Italic bool
	Color  string
}

func (f Format) IsZero() bool {
	return f == Format{}
}

type RunView struct {
	Text   string
	Format Format
	Props  *Element // w:rPr, nil when the run has none
}

// runContainers hold runs that belong to the paragraph text.
var runContainers = map[string]bool{
	"w:hyperlink": true,
	"w:smartTag":  true,
	"w:ins":       true,
	"w:customXml": true,
}

// inlineMarks may sit between the runs of one piece of text.
var inlineMarks = map[string]bool{
	"w:proofErr":          true,
	"w:bookmarkStart":     true,
	"w:bookmarkEnd":       true,
	"w:commentRangeStart": true,
	"w:commentRangeEnd":   true,
	"w:permStart":         true,
	"w:permEnd":           true,
}

var textRunChildren = map[string]bool{
	"w:rPr":                   true,
	"w:t":                     true,
	"w:tab":                   true,
	"w:br":                    true,
	"w:cr":                    true,
	"w:lastRenderedPageBreak": true,
}

func Body(doc *Document) *Element {
	root := doc.Root()
	if !root.Is("w:document") {
		return nil
	}
	return root.Child("w:body")
}

// Paragraphs returns the top-level paragraphs of the body.
func Paragraphs(doc *Document) []*Element {
	if body := Body(doc); body != nil {
		return body.ChildrenNamed("w:p")
	}
	return nil
}

// Tables returns the top-level tables of the body.
func Tables(doc *Document) []*Element {
	if body := Body(doc); body != nil {
		return body.ChildrenNamed("w:tbl")
	}
	return nil
}

func Rows(tbl *Element) []*Element { return tbl.ChildrenNamed("w:tr") }

func Cells(row *Element) []*Element { return row.ChildrenNamed("w:tc") }

func CellParagraphs(tc *Element) []*Element { return tc.ChildrenNamed("w:p") }

func CellTables(tc *Element) []*Element { return tc.ChildrenNamed("w:tbl") }

// Text is the visible text of p, including runs inside hyperlinks.
func Text(p *Element) string {
	var b strings.Builder
	writeText(&b, p)
	return b.String()
}

func writeText(b *strings.Builder, e *Element) {
	for _, c := range e.Elements() {
		switch {
		case c.Is("w:r"):
			b.WriteString(RunText(c))
		case runContainers[c.Name]:
			writeText(b, c)
		}
	}
}

func RunText(r *Element) string {
	var b strings.Builder
	for _, c := range r.Elements() {
		switch c.Name {
		case "w:t":
			b.WriteString(c.InnerText())
		case "w:tab":
			b.WriteByte('\t')
		case "w:br", "w:cr":
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// CellText joins the paragraph texts of tc with newlines. Nested tables are ignored.
func CellText(tc *Element) string {
	paragraphs := CellParagraphs(tc)
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		parts = append(parts, Text(p))
	}
	return strings.Join(parts, "\n")
}

// isTextRun reports whether r holds nothing but text. Runs carrying fields,
// drawings or typed breaks are never merged with their neighbours.
func isTextRun(r *Element) bool {
	for _, c := range r.Elements() {
		if !textRunChildren[c.Name] {
			return false
		}
		if c.Is("w:br") {
			if typ, ok := c.AttrValue("w:type"); ok && typ != "textWrapping" {
				return false
			}
		}
	}
	return true
}

// Segments splits p into groups of adjacent text runs that share a parent.
// A token can only be matched within one segment. Hyperlinks and other run
// containers form their own segments.
func Segments(p *Element) [][]*Element {
	var out [][]*Element
	var cur []*Element
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	for _, c := range p.Elements() {
		switch {
		case c.Is("w:r") && isTextRun(c):
			cur = append(cur, c)
		case runContainers[c.Name]:
			flush()
			out = append(out, Segments(c)...)
		case inlineMarks[c.Name]:
		default:
			flush()
		}
	}
	flush()
	return out
}

func Runs(runs []*Element) []RunView {
	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		props := r.Child("w:rPr")
		views = append(views, RunView{
			Text:   RunText(r),
			Format: FormatOf(props),
			Props:  props,
		})
	}
	return views
}

func FormatOf(rPr *Element) Format {
	var f Format
	if rPr == nil {
		return f
	}
	if fonts := rPr.Child("w:rFonts"); fonts != nil {
		for _, name := range []string{"w:ascii", "w:hAnsi", "w:eastAsia"} {
			if v, ok := fonts.AttrValue(name); ok && v != "" {
				f.Font = v
				break
			}
		}
	}
	if sz := rPr.Child("w:sz"); sz != nil {
		f.Size, _ = sz.AttrValue("w:val")
	}
	if color := rPr.Child("w:color"); color != nil {
		f.Color, _ = color.AttrValue("w:val")
	}
	f.Bold = onOff(rPr.Child("w:b"))
	f.Italic = onOff(rPr.Child("w:i"))
	return f
}

func onOff(e *Element) bool {
	if e == nil {
		return false
	}
	v, ok := e.AttrValue("w:val")
	return !ok || (v != "0" && v != "false" && v != "off")
}

// NewRun builds a run for text carrying a copy of props. Tabs and newlines
// become w:tab and w:br; whitespace is preserved.
func NewRun(text string, props *Element) *Element {
	run := NewElement("w:r")
	if props != nil {
		run.Append(props.Clone())
	}
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		t := NewElement("w:t", NewAttr("xml:space", "preserve"))
		t.Append(NewText(buf.String()))
		run.Append(t)
		buf.Reset()
	}
	for _, r := range text {
		switch r {
		case '\t':
			flush()
			run.Append(NewElement("w:tab"))
		case '\n':
			flush()
			run.Append(NewElement("w:br"))
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return run
}

// ReplaceRuns swaps the adjacent sibling runs for a single run holding text.
// Proofing marks between them are dropped; other marks stay in place.
func ReplaceRuns(runs []*Element, text string, props *Element) *Element {
	run := NewRun(text, props)
	if len(runs) == 0 || runs[0].parent == nil {
		return run
	}
	parent := runs[0].parent
	first := parent.Index(runs[0])
	last := parent.Index(runs[len(runs)-1])

	kept := make([]Node, 0, len(parent.Children))
	for i, n := range parent.Children {
		if i < first || i > last {
			kept = append(kept, n)
			continue
		}
		if i == first {
			kept = append(kept, run)
			continue
		}
		if e, ok := n.(*Element); ok && (e.Is("w:r") || e.Is("w:proofErr")) {
			continue
		}
		kept = append(kept, n)
	}
	parent.SetChildren(kept...)
	return run
}

// Clear removes everything but the paragraph properties from p.
func Clear(p *Element) {
	if pPr := p.Child("w:pPr"); pPr != nil {
		p.SetChildren(pPr)
		return
	}
	p.SetChildren()
}

// Schema order of the siblings that must follow w:jc inside w:pPr.
var afterJc = []string{
	"w:textDirection", "w:textAlignment", "w:textboxTightWrap", "w:outlineLvl",
	"w:divId", "w:cnfStyle", "w:rPr", "w:sectPr", "w:pPrChange",
}

// Schema order of the siblings that must follow w:vAlign inside w:tcPr.
var afterVAlign = []string{
	"w:hideMark", "w:headers", "w:cellIns", "w:cellDel", "w:cellMerge", "w:tcPrChange",
}

func SetAlignment(p *Element, a Alignment) {
	if AlignmentOf(p) == a {
		return
	}
	setProperty(properties(p, "w:pPr"), "w:jc", string(a), afterJc)
}

func AlignmentOf(p *Element) Alignment {
	if jc := p.Child("w:pPr").childOrNil("w:jc"); jc != nil {
		v, _ := jc.AttrValue("w:val")
		return Alignment(v)
	}
	return ""
}

func SetCellVerticalAlignment(tc *Element, val string) {
	if CellVerticalAlignment(tc) == val {
		return
	}
	setProperty(properties(tc, "w:tcPr"), "w:vAlign", val, afterVAlign)
}

func CellVerticalAlignment(tc *Element) string {
	if v := tc.Child("w:tcPr").childOrNil("w:vAlign"); v != nil {
		val, _ := v.AttrValue("w:val")
		return val
	}
	return ""
}

func (e *Element) childOrNil(name string) *Element {
	if e == nil {
		return nil
	}
	return e.Child(name)
}

// properties returns the property element of e, creating it as first child.
func properties(e *Element, name string) *Element {
	if props := e.Child(name); props != nil {
		return props
	}
	props := NewElement(name)
	e.Insert(0, props)
	return props
}

func setProperty(props *Element, name, val string, after []string) {
	if existing := props.Child(name); existing != nil {
		existing.SetAttr("w:val", val)
		return
	}
	prop := NewElement(name, NewAttr("w:val", val))
	for i, n := range props.Children {
		if c, ok := n.(*Element); ok && contains(after, c.Name) {
			props.Insert(i, prop)
			return
		}
	}
	props.Append(prop)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// PageSize reads w:pgSz of the body's final section properties, in
// twentieths of a point.
func PageSize(doc *Document) (width, height int, ok bool) {
	body := Body(doc)
	if body == nil {
		return 0, 0, false
	}
	sects := body.ChildrenNamed("w:sectPr")
	if len(sects) == 0 {
		return 0, 0, false
	}
	pgSz := sects[len(sects)-1].Child("w:pgSz")
	if pgSz == nil {
		return 0, 0, false
	}
	width = twips(pgSz, "w:w")
	height = twips(pgSz, "w:h")
	return width, height, width > 0 || height > 0
}

func twips(e *Element, name string) int {
	v, ok := e.AttrValue(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}
