package processor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"

	"proposal-generator/internal/docmodel"
	"proposal-generator/internal/placeholder"
)

const (
	documentPart     = "word/document.xml"
	documentRelsPart = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"
)

var ErrNotOpen = errors.New("document is not open")

type part struct {
	name   string
	method uint16
	data   []byte
}

// DocxProcessor owns one working copy of a template. The package is held in
// memory; only word/document.xml and the parts an inserted image needs are
// rewritten on save, every other entry is copied as it was read.
type DocxProcessor struct {
	inputFile string
	parts     []*part
	doc       *docmodel.Document
	logger    *zap.Logger
}

func NewDocxProcessor(inputFile string, logger *zap.Logger) *DocxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocxProcessor{
		inputFile: inputFile,
		logger:    logger,
	}
}

// FromDocument loads a document built with go-docx.
func FromDocument(doc *docx.Docx, logger *zap.Logger) (*DocxProcessor, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	return FromBytes(buf.Bytes(), logger)
}

// FromBytes loads a .docx package held in memory.
func FromBytes(data []byte, logger *zap.Logger) (*DocxProcessor, error) {
	dp := NewDocxProcessor("", logger)
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx file: %w", err)
	}
	if err := dp.load(reader.File); err != nil {
		return nil, err
	}
	return dp, nil
}

func (dp *DocxProcessor) Open() error {
	dp.logger.Debug("opening docx", zap.String("file", dp.inputFile))

	reader, err := zip.OpenReader(dp.inputFile)
	if err != nil {
		return fmt.Errorf("failed to open docx file: %w", err)
	}
	defer reader.Close()

	return dp.load(reader.File)
}

func (dp *DocxProcessor) load(files []*zip.File) error {
	parts := make([]*part, 0, len(files))
	var main *part
	for _, f := range files {
		data, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("failed to extract file %s: %w", f.Name, err)
		}
		p := &part{name: f.Name, method: f.Method, data: data}
		if f.Name == documentPart {
			main = p
		}
		parts = append(parts, p)
	}
	if main == nil {
		return fmt.Errorf("failed to parse docx file: %s is missing", documentPart)
	}

	doc, err := docmodel.Parse(main.data)
	if err != nil {
		return fmt.Errorf("failed to parse docx file: %w", err)
	}
	if docmodel.Body(doc) == nil {
		return fmt.Errorf("failed to parse docx file: %s has no body", documentPart)
	}

	dp.parts = parts
	dp.doc = doc
	dp.logger.Debug("docx parsed", zap.Int("parts", len(parts)))
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (dp *DocxProcessor) Document() *docmodel.Document {
	return dp.doc
}

func (dp *DocxProcessor) part(name string) *part {
	for _, p := range dp.parts {
		if strings.EqualFold(p.name, name) {
			return p
		}
	}
	return nil
}

func (dp *DocxProcessor) addPart(name string, data []byte) {
	dp.parts = append(dp.parts, &part{name: name, method: zip.Deflate, data: data})
}

// WriteTo zips the package. Entries keep their order and compression method.
func (dp *DocxProcessor) WriteTo(w io.Writer) (int64, error) {
	if dp.doc == nil {
		return 0, ErrNotOpen
	}

	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)
	for _, p := range dp.parts {
		data := p.data
		if p.name == documentPart {
			data = dp.doc.Bytes()
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: p.method})
		if err != nil {
			return counter.n, fmt.Errorf("failed to write docx: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return counter.n, fmt.Errorf("failed to write docx: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return counter.n, fmt.Errorf("failed to write docx: %w", err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Save writes the document to outputFile, replacing it if present.
func (dp *DocxProcessor) Save(outputFile string) error {
	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := dp.WriteTo(out); err != nil {
		out.Close()
		os.Remove(outputFile)
		return err
	}
	return out.Close()
}

// Cleanup releases the in-memory package.
func (dp *DocxProcessor) Cleanup() {
	dp.parts = nil
	dp.doc = nil
}

// ExtractPlaceholders lists the distinct tokens of the document in walk order.
// Tokens split across runs are found because the run texts are joined first.
func (dp *DocxProcessor) ExtractPlaceholders() ([]string, error) {
	if dp.doc == nil {
		return nil, ErrNotOpen
	}

	var texts []string
	for _, p := range docmodel.Paragraphs(dp.doc) {
		texts = append(texts, docmodel.Text(p))
	}
	for _, t := range docmodel.Tables(dp.doc) {
		texts = appendTableText(texts, t)
	}

	placeholders := placeholder.Extract(strings.Join(texts, "\n"))
	dp.logger.Debug("extracted placeholders", zap.Int("count", len(placeholders)))
	return placeholders, nil
}

func appendTableText(texts []string, t *docmodel.Element) []string {
	for _, row := range docmodel.Rows(t) {
		for _, cell := range docmodel.Cells(row) {
			for _, c := range cell.Elements() {
				switch c.Name {
				case "w:p":
					texts = append(texts, docmodel.Text(c))
				case "w:tbl":
					texts = appendTableText(texts, c)
				}
			}
		}
	}
	return texts
}
