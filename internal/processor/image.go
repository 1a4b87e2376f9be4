package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"proposal-generator/internal/docmodel"
)

const (
	emuPerInch       = 914400
	imageRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relationshipsNS  = "http://schemas.openxmlformats.org/package/2006/relationships"
	emptyDocumentRel = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="` + relationshipsNS + `"></Relationships>`
)

var ErrInvalidImage = errors.New("invalid image")

// ImageSize is in inches.
type ImageSize struct {
	Width  float64
	Height float64
}

func (s ImageSize) emu() (int64, int64) {
	return int64(s.Width * emuPerInch), int64(s.Height * emuPerInch)
}

var (
	BodyImageSize = ImageSize{Width: 1.2, Height: 0.75}
	CellImageSize = ImageSize{Width: 1.5, Height: 0.75}
)

const inlineDrawing = `<w:r><w:drawing>` +
	`<wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">` +
	`<wp:extent cx="%[1]d" cy="%[2]d"/>` +
	`<wp:effectExtent l="0" t="0" r="0" b="0"/>` +
	`<wp:docPr id="%[3]d" name="Signature %[3]d"/>` +
	`<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" noChangeAspect="1"/></wp:cNvGraphicFramePr>` +
	`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
	`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:nvPicPr><pic:cNvPr id="0" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip r:embed="%[5]s" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
	`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`

// InsertImage replaces the content of the first paragraph containing token
// with img, keeping the paragraph properties. Body paragraphs are searched
// before table cells. It returns false without touching the document when no
// paragraph holds the token.
func (dp *DocxProcessor) InsertImage(token string, img []byte) (bool, error) {
	if dp.doc == nil {
		return false, ErrNotOpen
	}

	p, size := dp.findAnchor(token)
	if p == nil {
		dp.logger.Warn("image anchor not found", zap.String("token", token))
		return false, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return false, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	rels, relsDoc, err := dp.xmlPart(documentRelsPart, emptyDocumentRel)
	if err != nil {
		return false, err
	}
	types, typesDoc, err := dp.xmlPart(contentTypesPart, "")
	if err != nil {
		return false, err
	}

	mediaName := dp.newMediaName(format)
	relID := addRelationship(relsDoc.Root(), imageRelType, strings.TrimPrefix(mediaName, "word/"))
	ensureDefaultContentType(typesDoc.Root(), format, "image/"+format)

	w, h := size.emu()
	nodes, err := docmodel.ParseFragment(fmt.Sprintf(inlineDrawing, w, h, dp.nextDrawingID(), path.Base(mediaName), relID))
	if err != nil {
		return false, fmt.Errorf("failed to build drawing: %w", err)
	}

	rels.data = relsDoc.Bytes()
	types.data = typesDoc.Bytes()
	dp.addPart(mediaName, img)

	docmodel.Clear(p)
	p.Append(nodes...)
	dp.logger.Debug("image inserted", zap.String("token", token), zap.String("part", mediaName))
	return true, nil
}

func (dp *DocxProcessor) findAnchor(token string) (*docmodel.Element, ImageSize) {
	for _, p := range docmodel.Paragraphs(dp.doc) {
		if strings.Contains(docmodel.Text(p), token) {
			return p, BodyImageSize
		}
	}
	for _, t := range docmodel.Tables(dp.doc) {
		if p := findInTable(t, token); p != nil {
			return p, CellImageSize
		}
	}
	return nil, ImageSize{}
}

func findInTable(t *docmodel.Element, token string) *docmodel.Element {
	for _, row := range docmodel.Rows(t) {
		for _, cell := range docmodel.Cells(row) {
			for _, c := range cell.Elements() {
				switch {
				case c.Is("w:p") && strings.Contains(docmodel.Text(c), token):
					return c
				case c.Is("w:tbl"):
					if p := findInTable(c, token); p != nil {
						return p
					}
				}
			}
		}
	}
	return nil
}

// xmlPart parses the named part. A missing part is created from fallback,
// or reported when there is none.
func (dp *DocxProcessor) xmlPart(name, fallback string) (*part, *docmodel.Document, error) {
	p := dp.part(name)
	if p == nil {
		if fallback == "" {
			return nil, nil, fmt.Errorf("failed to update docx: %s is missing", name)
		}
		dp.addPart(name, []byte(fallback))
		p = dp.part(name)
	}
	doc, err := docmodel.Parse(p.data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return p, doc, nil
}

func (dp *DocxProcessor) newMediaName(ext string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("word/media/signature%d.%s", i, ext)
		if dp.part(name) == nil {
			return name
		}
	}
}

// nextDrawingID is one past the largest wp:docPr id in the document.
func (dp *DocxProcessor) nextDrawingID() int {
	maxID := 0
	dp.doc.Root().Walk(func(e *docmodel.Element) bool {
		if e.Is("wp:docPr") {
			if v, ok := e.AttrValue("id"); ok {
				if id, err := strconv.Atoi(v); err == nil && id > maxID {
					maxID = id
				}
			}
		}
		return true
	})
	return maxID + 1
}

func addRelationship(root *docmodel.Element, relType, target string) string {
	used := make(map[string]bool)
	for _, rel := range root.ChildrenNamed("Relationship") {
		if id, ok := rel.AttrValue("Id"); ok {
			used[id] = true
		}
	}
	id := ""
	for i := 1; ; i++ {
		id = "rId" + strconv.Itoa(i)
		if !used[id] {
			break
		}
	}
	root.Append(docmodel.NewElement("Relationship",
		docmodel.NewAttr("Id", id),
		docmodel.NewAttr("Type", relType),
		docmodel.NewAttr("Target", target),
	))
	return id
}

func ensureDefaultContentType(root *docmodel.Element, ext, contentType string) {
	for _, d := range root.ChildrenNamed("Default") {
		if v, ok := d.AttrValue("Extension"); ok && strings.EqualFold(v, ext) {
			return
		}
	}
	root.Insert(0, docmodel.NewElement("Default",
		docmodel.NewAttr("Extension", ext),
		docmodel.NewAttr("ContentType", contentType),
	))
}
