package processor

import (
	"proposal-generator/internal/docmodel"
)

// DocumentLayout is the page size of the document in points.
type DocumentLayout struct {
	PageWidth  float64
	PageHeight float64
	Landscape  bool
}

// Letter size, used when the document carries no section properties.
func defaultLayout() DocumentLayout {
	return DocumentLayout{
		PageWidth:  612,
		PageHeight: 792,
	}
}

// Layout reads the page size of the last section. w:pgSz is stored in
// twentieths of a point.
func (dp *DocxProcessor) Layout() (DocumentLayout, error) {
	if dp.doc == nil {
		return DocumentLayout{}, ErrNotOpen
	}

	layout := defaultLayout()
	if w, h, ok := docmodel.PageSize(dp.doc); ok {
		if w > 0 {
			layout.PageWidth = float64(w) / 20
		}
		if h > 0 {
			layout.PageHeight = float64(h) / 20
		}
	}
	layout.Landscape = layout.PageWidth > layout.PageHeight
	return layout, nil
}

func (dp *DocxProcessor) DetectOrientation() (bool, error) {
	layout, err := dp.Layout()
	if err != nil {
		return false, err
	}
	return layout.Landscape, nil
}
