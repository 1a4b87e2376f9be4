package processor

import (
	"go.uber.org/zap"

	"proposal-generator/internal/docmodel"
	"proposal-generator/internal/placeholder"
)

type ReplaceStats struct {
	Paragraphs int `json:"paragraphs"`
	Changed    int `json:"changed"`
	Cells      int `json:"cells"`
}

// FindAndReplaceInDocument substitutes every token of m. Body paragraphs go
// first, then tables row by row. A cell holding nested tables is handled
// through those tables only. Every visited cell is vertically centered.
func (dp *DocxProcessor) FindAndReplaceInDocument(m *placeholder.Map) (ReplaceStats, error) {
	if dp.doc == nil {
		return ReplaceStats{}, ErrNotOpen
	}

	w := &walker{resolver: placeholder.NewResolver(m)}
	for _, p := range docmodel.Paragraphs(dp.doc) {
		w.paragraph(p, false)
	}
	for _, t := range docmodel.Tables(dp.doc) {
		w.table(t)
	}

	dp.logger.Debug("placeholders replaced",
		zap.Int("paragraphs", w.stats.Paragraphs),
		zap.Int("changed", w.stats.Changed),
		zap.Int("cells", w.stats.Cells),
	)
	return w.stats, nil
}

type walker struct {
	resolver *placeholder.Resolver
	stats    ReplaceStats
}

func (w *walker) table(t *docmodel.Element) {
	for _, row := range docmodel.Rows(t) {
		for _, cell := range docmodel.Cells(row) {
			w.cell(cell)
		}
	}
}

func (w *walker) cell(c *docmodel.Element) {
	if nested := docmodel.CellTables(c); len(nested) > 0 {
		for _, t := range nested {
			w.table(t)
		}
	} else {
		for _, p := range docmodel.CellParagraphs(c) {
			w.paragraph(p, true)
		}
	}
	docmodel.SetCellVerticalAlignment(c, docmodel.VerticalCenter)
	w.stats.Cells++
}

func (w *walker) paragraph(p *docmodel.Element, inCell bool) {
	w.stats.Paragraphs++
	if reconcileParagraph(p, w.resolver, inCell) {
		w.stats.Changed++
	}
}
