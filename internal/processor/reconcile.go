package processor

import (
	"strings"

	"proposal-generator/internal/docmodel"
	"proposal-generator/internal/placeholder"
)

// AddressToken keeps its cell paragraph left aligned after substitution.
const AddressToken = "<<Address>>"

// runsEdit is the planned rewrite of one segment of runs: its whole text
// becomes a single run formatted like the first run that had text.
type runsEdit struct {
	Original string
	Text     string
	Format   docmodel.Format
	Props    *docmodel.Element
}

// planRuns reports false when resolving leaves the text as it was.
func planRuns(runs []docmodel.RunView, r *placeholder.Resolver) (runsEdit, bool) {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	original := b.String()

	resolved, changed := r.Resolve(original)
	if !changed {
		return runsEdit{}, false
	}
	rep := representativeRun(runs)
	return runsEdit{
		Original: original,
		Text:     resolved,
		Format:   rep.Format,
		Props:    rep.Props,
	}, true
}

func representativeRun(runs []docmodel.RunView) docmodel.RunView {
	for _, run := range runs {
		if run.Text != "" {
			return run
		}
	}
	return docmodel.RunView{}
}

// reconcileParagraph rewrites every segment of p whose text changes and
// reports whether anything was rewritten. Segments without a token keep
// their runs as they were.
func reconcileParagraph(p *docmodel.Element, r *placeholder.Resolver, inCell bool) bool {
	original := docmodel.Text(p)
	changed := false
	for _, segment := range docmodel.Segments(p) {
		edit, ok := planRuns(docmodel.Runs(segment), r)
		if !ok {
			continue
		}
		docmodel.ReplaceRuns(segment, edit.Text, edit.Props)
		changed = true
	}
	if !changed || !inCell {
		return changed
	}
	if strings.Contains(original, AddressToken) {
		docmodel.SetAlignment(p, docmodel.AlignLeft)
	} else {
		docmodel.SetAlignment(p, docmodel.AlignCenter)
	}
	return true
}
