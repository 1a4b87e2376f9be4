package processor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-generator/internal/docmodel"
	"proposal-generator/internal/placeholder"
)

const (
	xmlHeader    = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	documentOpen = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`
	contentTypes = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`
	packageRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
	documentRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`<Relationship Id="rId9" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"/>` +
		`</Relationships>`
	stylesXML = xmlHeader + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:docDefaults/></w:styles>`
)

func documentXML(body string) string {
	return xmlHeader + documentOpen + `<w:body>` + body + `</w:body></w:document>`
}

// packageOf zips a minimal Word package around body.
func packageOf(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/document.xml", documentXML(body)},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/styles.xml", stylesXML},
	} {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func load(t *testing.T, body string) *DocxProcessor {
	t.Helper()
	dp, err := FromBytes(packageOf(t, body), nil)
	require.NoError(t, err)
	return dp
}

func written(t *testing.T, dp *DocxProcessor) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := dp.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func entry(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("package has no %s", name)
	return ""
}

func mapOf(kv ...string) *placeholder.Map {
	m := placeholder.NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

func cell(inner string) string {
	return `<w:tc>` + inner + `</w:tc>`
}

func row(cells ...string) string {
	return `<w:tr>` + strings.Join(cells, "") + `</w:tr>`
}

func table(rows ...string) string {
	return `<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>` + strings.Join(rows, "") + `</w:tbl>`
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPlanRuns(t *testing.T) {
	r := placeholder.NewResolver(mapOf("<<Client Name>>", "Acme"))

	t.Run("split token takes first non-empty run format", func(t *testing.T) {
		runs := []docmodel.RunView{
			{Text: "", Format: docmodel.Format{Font: "Courier"}},
			{Text: "Dear <<Cli", Format: docmodel.Format{Bold: true, Size: "24"}},
			{Text: "ent Name>>", Format: docmodel.Format{Italic: true, Color: "00FF00"}},
		}
		edit, ok := planRuns(runs, r)
		require.True(t, ok)
		assert.Equal(t, "Dear <<Client Name>>", edit.Original)
		assert.Equal(t, "Dear Acme", edit.Text)
		assert.Equal(t, docmodel.Format{Bold: true, Size: "24"}, edit.Format)
	})

	t.Run("unchanged text is not planned", func(t *testing.T) {
		_, ok := planRuns([]docmodel.RunView{{Text: "nothing to do"}}, r)
		assert.False(t, ok)
	})

	t.Run("no runs", func(t *testing.T) {
		_, ok := planRuns(nil, r)
		assert.False(t, ok)
	})

	t.Run("all runs empty falls back to no format", func(t *testing.T) {
		rep := representativeRun([]docmodel.RunView{{Format: docmodel.Format{Bold: true}}})
		assert.True(t, rep.Format.IsZero())
		assert.Nil(t, rep.Props)
	})
}

func TestFindAndReplaceSplitAcrossRuns(t *testing.T) {
	dp := load(t, `<w:p>`+
		`<w:r><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:b/><w:caps/><w:color w:val="1F3864"/></w:rPr><w:t xml:space="preserve">Prepared for &lt;&lt;Client</w:t></w:r>`+
		`<w:proofErr w:type="spellStart"/>`+
		`<w:r><w:rPr><w:i/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve"> Name&gt;&gt; today</w:t></w:r></w:p>`)

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Client Name>>", "Acme Ltd"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Changed)

	p := docmodel.Paragraphs(dp.Document())[0]
	runs := docmodel.Runs(docmodel.Segments(p)[0])
	require.Len(t, runs, 1)
	assert.Equal(t, "Prepared for Acme Ltd today", runs[0].Text)
	assert.Equal(t, docmodel.Format{Font: "Calibri", Bold: true, Color: "1F3864"}, runs[0].Format)
	assert.NotNil(t, runs[0].Props.Child("w:caps"))
}

func TestFindAndReplaceFromBuiltDocument(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	p := doc.AddParagraph()
	p.AddText("Prepared for <<Client").Bold().Color("1F3864")
	p.AddText(" Name>> today").Italic()

	dp, err := FromDocument(doc, nil)
	require.NoError(t, err)
	_, err = dp.FindAndReplaceInDocument(mapOf("<<Client Name>>", "Acme Ltd"))
	require.NoError(t, err)

	paragraphs := docmodel.Paragraphs(dp.Document())
	require.NotEmpty(t, paragraphs)
	runs := docmodel.Runs(docmodel.Segments(paragraphs[0])[0])
	require.Len(t, runs, 1)
	assert.Equal(t, "Prepared for Acme Ltd today", runs[0].Text)
	assert.True(t, runs[0].Format.Bold)
	assert.False(t, runs[0].Format.Italic)
}

func TestSaveKeepsUntouchedMarkup(t *testing.T) {
	toc := `<w:sdt><w:sdtPr><w:docPartObj><w:docPartGallery w:val="Table of Contents"/><w:docPartUnique/></w:docPartObj></w:sdtPr>` +
		`<w:sdtContent><w:p><w:pPr><w:pStyle w:val="TOCHeading"/></w:pPr><w:r><w:t>TABLE OF CONTENTS</w:t></w:r></w:p></w:sdtContent></w:sdt>`
	static := `<w:p w14:paraId="1A2B3C4D" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml">` +
		`<w:bookmarkStart w:id="0" w:name="intro"/>` +
		`<w:r><w:rPr><w:rFonts w:asciiTheme="majorHAnsi" w:hAnsiTheme="majorHAnsi"/><w:caps/><w:spacing w:val="20"/></w:rPr><w:t>Static heading</w:t></w:r>` +
		`<w:bookmarkEnd w:id="0"/>` +
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r><w:r><w:instrText xml:space="preserve"> PAGE </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="separate"/></w:r><w:r><w:t>1</w:t></w:r><w:r><w:fldChar w:fldCharType="end"/></w:r></w:p>`
	greeting := `<w:p><w:r><w:t xml:space="preserve">Dear &lt;&lt;Client Name&gt;&gt;</w:t></w:r></w:p>`
	sect := `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>`

	dp := load(t, toc+static+greeting+sect)
	_, err := dp.FindAndReplaceInDocument(mapOf("<<Client Name>>", "Acme"))
	require.NoError(t, err)

	out := written(t, dp)
	want := documentXML(toc + static + `<w:p><w:r><w:t xml:space="preserve">Dear Acme</w:t></w:r></w:p>` + sect)
	assert.Equal(t, want, entry(t, out, "word/document.xml"))
	assert.Equal(t, stylesXML, entry(t, out, "word/styles.xml"))
	assert.Equal(t, documentRels, entry(t, out, "word/_rels/document.xml.rels"))
	assert.Equal(t, contentTypes, entry(t, out, "[Content_Types].xml"))
}

func TestSaveWithoutTokensOnlyCentersCells(t *testing.T) {
	body := para("No tokens here") + table(row(cell(para("Design")), cell(para("1,000"))))
	dp := load(t, body)

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Date>>", "01-01-2025"))
	require.NoError(t, err)
	assert.Zero(t, stats.Changed)

	out := written(t, dp)
	got := entry(t, out, "word/document.xml")
	// cells gain their vertical alignment, nothing else moves
	want := documentXML(para("No tokens here") + table(row(
		cell(`<w:tcPr><w:vAlign w:val="center"/></w:tcPr>`+para("Design")),
		cell(`<w:tcPr><w:vAlign w:val="center"/></w:tcPr>`+para("1,000")),
	)))
	assert.Equal(t, want, got)
}

func TestFindAndReplaceLeavesTokenFreeParagraphs(t *testing.T) {
	dp := load(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Plain </w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>text</w:t></w:r></w:p>`+
		para("<<Date>>"))

	_, err := dp.FindAndReplaceInDocument(mapOf("<<Date>>", "01-01-2025"))
	require.NoError(t, err)

	paragraphs := docmodel.Paragraphs(dp.Document())
	assert.False(t, paragraphs[0].Modified())
	assert.Equal(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Plain </w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>text</w:t></w:r></w:p>`,
		string(paragraphs[0].Bytes()))
	assert.Equal(t, "01-01-2025", docmodel.Text(paragraphs[1]))
}

func TestFindAndReplaceIsNoOpOnSecondRun(t *testing.T) {
	dp := load(t, para("Total: <<Total>>"))
	m := mapOf("<<Total>>", "3,894")

	_, err := dp.FindAndReplaceInDocument(m)
	require.NoError(t, err)
	stats, err := dp.FindAndReplaceInDocument(m)
	require.NoError(t, err)
	assert.Zero(t, stats.Changed)
}

func TestHyperlinksSurviveReplacement(t *testing.T) {
	link := `<w:hyperlink r:id="rId9" w:history="1"><w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr><w:t>our site</w:t></w:r></w:hyperlink>`
	dp := load(t, `<w:p><w:r><w:t xml:space="preserve">Mail &lt;&lt;Client Email&gt;&gt; or visit </w:t></w:r>`+link+`</w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">Contact: </w:t></w:r><w:hyperlink w:anchor="top"><w:r><w:t>&lt;&lt;Client Name&gt;&gt;</w:t></w:r></w:hyperlink></w:p>`)

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Client Email>>", "a@b.c", "<<Client Name>>", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Changed)

	paragraphs := docmodel.Paragraphs(dp.Document())
	assert.Equal(t, "Mail a@b.c or visit our site", docmodel.Text(paragraphs[0]))
	assert.Contains(t, string(paragraphs[0].Bytes()), link)

	assert.Equal(t, "Contact: Acme", docmodel.Text(paragraphs[1]))
	links := paragraphs[1].ChildrenNamed("w:hyperlink")
	require.Len(t, links, 1)
	anchor, _ := links[0].AttrValue("w:anchor")
	assert.Equal(t, "top", anchor)
}

func TestFieldRunsAreNotMerged(t *testing.T) {
	field := `<w:r><w:fldChar w:fldCharType="begin"/></w:r><w:r><w:instrText xml:space="preserve"> DATE </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>`
	dp := load(t, `<w:p><w:r><w:t xml:space="preserve">&lt;&lt;Date&gt;&gt; </w:t></w:r>`+field+`</w:p>`)

	_, err := dp.FindAndReplaceInDocument(mapOf("<<Date>>", "02-01-2025"))
	require.NoError(t, err)

	p := docmodel.Paragraphs(dp.Document())[0]
	assert.Equal(t, `<w:p><w:r><w:t xml:space="preserve">02-01-2025 </w:t></w:r>`+field+`</w:p>`, string(p.Bytes()))
}

func TestTableCellAlignment(t *testing.T) {
	dp := load(t, table(row(
		cell(para("<<Address>>")),
		cell(para("<<Client Name>>")),
		cell(`<w:tcPr><w:tcW w:w="2000" w:type="dxa"/></w:tcPr>`+para("Static")),
	)))

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Address>>", "12 Main St", "<<Client Name>>", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 3, stats.Cells)

	cells := docmodel.Cells(docmodel.Rows(docmodel.Tables(dp.Document())[0])[0])
	assert.Equal(t, docmodel.AlignLeft, docmodel.AlignmentOf(docmodel.CellParagraphs(cells[0])[0]))
	assert.Equal(t, docmodel.AlignCenter, docmodel.AlignmentOf(docmodel.CellParagraphs(cells[1])[0]))
	assert.Equal(t, docmodel.Alignment(""), docmodel.AlignmentOf(docmodel.CellParagraphs(cells[2])[0]))
	for _, c := range cells {
		assert.Equal(t, docmodel.VerticalCenter, docmodel.CellVerticalAlignment(c))
	}
	assert.False(t, docmodel.CellParagraphs(cells[2])[0].Modified())
}

func TestNestedTablesReplaceInnerCellsOnly(t *testing.T) {
	inner := table(row(cell(para("<<Client Name>>")), cell(para("<<Total>>"))))
	dp := load(t, table(row(cell(para("<<Client Name>> in outer")+inner+para("")))))

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Client Name>>", "Acme", "<<Total>>", "100"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Cells)

	outerCell := docmodel.Cells(docmodel.Rows(docmodel.Tables(dp.Document())[0])[0])[0]
	assert.Equal(t, "<<Client Name>> in outer", docmodel.Text(docmodel.CellParagraphs(outerCell)[0]))
	innerCells := docmodel.Cells(docmodel.Rows(docmodel.CellTables(outerCell)[0])[0])
	assert.Equal(t, "Acme", docmodel.CellText(innerCells[0]))
	assert.Equal(t, "100", docmodel.CellText(innerCells[1]))
	assert.Equal(t, docmodel.VerticalCenter, docmodel.CellVerticalAlignment(outerCell))
	assert.Equal(t, docmodel.VerticalCenter, docmodel.CellVerticalAlignment(innerCells[1]))
}

func TestNestedTableCellOrderSurvivesSave(t *testing.T) {
	inner := table(row(cell(para("<<Total>>"))))
	dp := load(t, table(row(cell(para("Before")+inner+para("After")))))

	_, err := dp.FindAndReplaceInDocument(mapOf("<<Total>>", "100"))
	require.NoError(t, err)
	_, err = dp.RemoveEmptyRows(DefaultRowRule())
	require.NoError(t, err)

	dir := t.TempDir()
	out := filepath.Join(dir, "nested.docx")
	require.NoError(t, dp.Save(out))

	reopened := NewDocxProcessor(out, nil)
	require.NoError(t, reopened.Open())
	defer reopened.Cleanup()

	outerCell := docmodel.Cells(docmodel.Rows(docmodel.Tables(reopened.Document())[0])[0])[0]
	var names []string
	for _, c := range outerCell.Elements() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"w:tcPr", "w:p", "w:tbl", "w:p"}, names)
	assert.Equal(t, "Before\nAfter", docmodel.CellText(outerCell))

	innerCell := docmodel.Cells(docmodel.Rows(docmodel.CellTables(outerCell)[0])[0])[0]
	assert.Equal(t, "100", docmodel.CellText(innerCell))
}

func TestBodyParagraphsAreNotAligned(t *testing.T) {
	dp := load(t, table(row(cell(para("<<Date>>"))))+para("<<Date>>"))

	stats, err := dp.FindAndReplaceInDocument(mapOf("<<Date>>", "02-01-2025"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Changed)

	body := docmodel.Paragraphs(dp.Document())[0]
	assert.Equal(t, "02-01-2025", docmodel.Text(body))
	assert.Equal(t, docmodel.Alignment(""), docmodel.AlignmentOf(body))
}

func TestRemoveEmptyRows(t *testing.T) {
	priceTable := table(
		row(cell(para("Design")), cell(para("1,000"))),
		row(cell(para("Hosting")), cell(para(""))),
		row(cell(para("Support")), cell(para("  "))),
		row(cell(para("SEO")), cell(para("500"))),
	)
	short := table(row(cell(para("only"))))
	dp := load(t, priceTable+short)

	removed, err := dp.RemoveEmptyRows(DefaultRowRule())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	tables := docmodel.Tables(dp.Document())
	rows := docmodel.Rows(tables[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "Design", docmodel.CellText(docmodel.Cells(rows[0])[0]))
	assert.Equal(t, "SEO", docmodel.CellText(docmodel.Cells(rows[1])[0]))
	assert.Len(t, docmodel.Rows(tables[1]), 1)
	assert.NotNil(t, tables[0].Child("w:tblPr"))
}

func TestRemoveEmptyRowsPerTableColumn(t *testing.T) {
	first := table(
		row(cell(para("")), cell(para("")), cell(para("10"))),
		row(cell(para("")), cell(para("label only")), cell(para(""))),
	)
	second := table(row(cell(para("")), cell(para(""))))
	dp := load(t, first+second)

	removed, err := dp.RemoveEmptyRows(RowRule{DefaultColumn: 1, Columns: map[int]int{0: 2}, Tables: []int{0}})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	tables := docmodel.Tables(dp.Document())
	rows := docmodel.Rows(tables[0])
	require.Len(t, rows, 1)
	assert.Equal(t, "10", docmodel.CellText(docmodel.Cells(rows[0])[2]))
	assert.Len(t, docmodel.Rows(tables[1]), 1)
}

func TestRemoveEmptyRowsSkipsNestedTables(t *testing.T) {
	inner := table(row(cell(para("")), cell(para(""))), row(cell(para("")), cell(para(""))))
	dp := load(t, table(row(cell(para("Label")), cell(inner+para("")))))

	removed, err := dp.RemoveEmptyRows(DefaultRowRule())
	require.NoError(t, err)
	assert.Zero(t, removed)

	outer := docmodel.Tables(dp.Document())[0]
	rows := docmodel.Rows(outer)
	require.Len(t, rows, 1)
	nested := docmodel.CellTables(docmodel.Cells(rows[0])[1])[0]
	assert.Len(t, docmodel.Rows(nested), 2)
}

func TestInsertImage(t *testing.T) {
	t.Run("body anchor", func(t *testing.T) {
		dp := load(t, para("Regards")+`<w:p><w:pPr><w:jc w:val="right"/></w:pPr><w:r><w:t>&lt;&lt;Signature&gt;&gt;</w:t></w:r></w:p>`)

		found, err := dp.InsertImage("<<Signature>>", pngBytes(t))
		require.NoError(t, err)
		assert.True(t, found)

		anchor := docmodel.Paragraphs(dp.Document())[1]
		assert.Empty(t, docmodel.Text(anchor))
		assert.Equal(t, docmodel.Alignment("right"), docmodel.AlignmentOf(anchor))
		xml := string(anchor.Bytes())
		w, h := BodyImageSize.emu()
		assert.Contains(t, xml, fmt.Sprintf(`<wp:extent cx="%d" cy="%d"/>`, w, h))
		assert.Contains(t, xml, `r:embed="rId2"`)

		out := written(t, dp)
		assert.Equal(t, string(pngBytes(t)), entry(t, out, "word/media/signature1.png"))
		rels := entry(t, out, "word/_rels/document.xml.rels")
		assert.Contains(t, rels, `<Relationship Id="rId2" Type="`+imageRelType+`" Target="media/signature1.png"/>`)
		assert.Contains(t, rels, `Id="rId9"`)
		assert.Contains(t, entry(t, out, "[Content_Types].xml"), `<Default Extension="png" ContentType="image/png"/>`)
		assert.Equal(t, stylesXML, entry(t, out, "word/styles.xml"))

		reopened, err := FromBytes(out, nil)
		require.NoError(t, err)
		assert.Len(t, docmodel.Paragraphs(reopened.Document()), 2)
	})

	t.Run("cell anchor", func(t *testing.T) {
		dp := load(t, table(row(cell(para("Sign: <<Signature>>")))))

		found, err := dp.InsertImage("<<Signature>>", pngBytes(t))
		require.NoError(t, err)
		assert.True(t, found)

		c := docmodel.Cells(docmodel.Rows(docmodel.Tables(dp.Document())[0])[0])[0]
		assert.Empty(t, docmodel.CellText(c))
		w, h := CellImageSize.emu()
		assert.Contains(t, string(c.Bytes()), fmt.Sprintf(`<wp:extent cx="%d" cy="%d"/>`, w, h))
	})

	t.Run("second image gets fresh names", func(t *testing.T) {
		dp := load(t, para("<<Signature>>")+para("<<Signature>>"))

		for i := 0; i < 2; i++ {
			found, err := dp.InsertImage("<<Signature>>", pngBytes(t))
			require.NoError(t, err)
			require.True(t, found)
		}
		out := written(t, dp)
		entry(t, out, "word/media/signature2.png")
		doc := entry(t, out, "word/document.xml")
		assert.Contains(t, doc, `<wp:docPr id="1" name="Signature 1"/>`)
		assert.Contains(t, doc, `<wp:docPr id="2" name="Signature 2"/>`)
		assert.Contains(t, doc, `r:embed="rId3"`)
	})

	t.Run("missing anchor is not an error", func(t *testing.T) {
		dp := load(t, para("no anchor"))

		found, err := dp.InsertImage("<<Signature>>", pngBytes(t))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, "no anchor", docmodel.Text(docmodel.Paragraphs(dp.Document())[0]))
	})

	t.Run("malformed image", func(t *testing.T) {
		dp := load(t, para("<<Signature>>"))

		_, err := dp.InsertImage("<<Signature>>", []byte("not an image"))
		assert.ErrorIs(t, err, ErrInvalidImage)
		assert.Equal(t, "<<Signature>>", docmodel.Text(docmodel.Paragraphs(dp.Document())[0]))
		assert.Equal(t, documentRels, entry(t, written(t, dp), "word/_rels/document.xml.rels"))
	})
}

func TestExtractPlaceholders(t *testing.T) {
	inner := table(row(cell(para("<<P1>> <<Client Name>>"))))
	dp := load(t, `<w:p><w:r><w:t xml:space="preserve">Hello &lt;&lt;Client</w:t></w:r><w:r><w:t xml:space="preserve"> Name&gt;&gt;, valid until {validity_date}</w:t></w:r></w:p>`+
		table(row(cell(para("<<Total>>")+inner+para("")))))

	got, err := dp.ExtractPlaceholders()
	require.NoError(t, err)
	assert.Equal(t, []string{"<<Client Name>>", "{validity_date}", "<<Total>>", "<<P1>>"}, got)
}

func TestNotOpen(t *testing.T) {
	dp := NewDocxProcessor("missing.docx", nil)

	_, err := dp.FindAndReplaceInDocument(placeholder.NewMap())
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = dp.RemoveEmptyRows(DefaultRowRule())
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = dp.InsertImage("<<Signature>>", nil)
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = dp.WriteTo(io.Discard)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Error(t, dp.Open())

	_, err = FromBytes([]byte("not a zip"), nil)
	assert.Error(t, err)
}

func TestSaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.docx")

	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Dear <<Client Name>>,")
	doc.AddParagraph().AddText("Total due: <<Total>>")
	built, err := FromDocument(doc, nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(templatePath))

	dp := NewDocxProcessor(templatePath, nil)
	require.NoError(t, dp.Open())
	defer dp.Cleanup()

	_, err = dp.FindAndReplaceInDocument(mapOf("<<Client Name>>", "Acme", "<<Total>>", "1,000"))
	require.NoError(t, err)

	outputPath := filepath.Join(dir, "output.docx")
	require.NoError(t, dp.Save(outputPath))

	reopened := NewDocxProcessor(outputPath, nil)
	require.NoError(t, reopened.Open())
	defer reopened.Cleanup()

	var texts []string
	for _, p := range docmodel.Paragraphs(reopened.Document()) {
		if text := docmodel.Text(p); text != "" {
			texts = append(texts, text)
		}
	}
	assert.Equal(t, []string{"Dear Acme,", "Total due: 1,000"}, texts)
}

func TestLayout(t *testing.T) {
	landscape, err := load(t, para("x")).DetectOrientation()
	require.NoError(t, err)
	assert.False(t, landscape)

	dp := load(t, para("x")+`<w:sectPr><w:pgSz w:w="16838" w:h="11906" w:orient="landscape"/></w:sectPr>`)
	layout, err := dp.Layout()
	require.NoError(t, err)
	assert.True(t, layout.Landscape)
	assert.InDelta(t, 841.9, layout.PageWidth, 0.01)
}
