package processor

import (
	"strings"

	"go.uber.org/zap"

	"proposal-generator/internal/docmodel"
)

// RowRule selects which top-level tables are cleaned and which column holds
// the value checked for emptiness. Table indexes count top-level tables only.
type RowRule struct {
	DefaultColumn int         `yaml:"column" json:"column"`
	Columns       map[int]int `yaml:"columns,omitempty" json:"columns,omitempty"`
	Tables        []int       `yaml:"tables,omitempty" json:"tables,omitempty"`
}

func DefaultRowRule() RowRule {
	return RowRule{DefaultColumn: 1}
}

func (r RowRule) column(table int) int {
	if col, ok := r.Columns[table]; ok {
		return col
	}
	return r.DefaultColumn
}

func (r RowRule) applies(table int) bool {
	if len(r.Tables) == 0 {
		return true
	}
	for _, t := range r.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// RemoveEmptyRows deletes rows whose value cell is blank after substitution
// and returns how many were removed. Rows too short to have the value column
// are kept. Nested tables are never touched.
func (dp *DocxProcessor) RemoveEmptyRows(rule RowRule) (int, error) {
	if dp.doc == nil {
		return 0, ErrNotOpen
	}

	removed := 0
	for i, t := range docmodel.Tables(dp.doc) {
		if !rule.applies(i) {
			continue
		}
		n := removeEmptyRows(t, rule.column(i))
		if n > 0 {
			dp.logger.Debug("removed empty rows", zap.Int("table", i), zap.Int("rows", n))
		}
		removed += n
	}
	return removed, nil
}

func removeEmptyRows(t *docmodel.Element, col int) int {
	removed := 0
	rows := docmodel.Rows(t)
	for i := len(rows) - 1; i >= 0; i-- {
		if rowValueEmpty(rows[i], col) {
			t.Remove(rows[i])
			removed++
		}
	}
	return removed
}

func rowValueEmpty(row *docmodel.Element, col int) bool {
	cells := docmodel.Cells(row)
	if col < 0 || col >= len(cells) {
		return false
	}
	cell := cells[col]
	if len(docmodel.CellTables(cell)) > 0 {
		return false
	}
	return strings.TrimSpace(docmodel.CellText(cell)) == ""
}
