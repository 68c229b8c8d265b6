package analyze

import (
	"cmp"
	"slices"

	"golang.org/x/tools/go/analysis"

	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

func (r *reporter) fix(msg string, edits ...analysis.TextEdit) analysis.SuggestedFix {
	return analysis.SuggestedFix{Message: msg, TextEdits: edits}
}

// protectedFix makes an invoker protected: an explicit `private` is
// replaced, an implicit one gets a modifier in front of the declaration.
func (r *reporter) protectedFix(m *symbols.Method) analysis.SuggestedFix {
	const msg = "Make the invoker protected"
	d := m.Decl()
	for _, mod := range d.ModifierList {
		if mod.Word == "private" {
			return r.fix(msg, r.edit(mod.Span, "protected"))
		}
	}
	at := d.NameSpan.Start
	switch {
	case len(d.ModifierList) > 0:
		at = d.ModifierList[0].Span.Start
	case d.Return != nil:
		at = d.Return.Span.Start
	}
	return r.fix(msg, r.insert(at, "protected "))
}

// callerMemberNameFix marks the name parameter and gives it a default so
// that callers can omit it.
func (r *reporter) callerMemberNameFix(p *symbols.Parameter) analysis.SuggestedFix {
	d := p.Decl()
	edits := []analysis.TextEdit{r.insert(d.Span.Start, "[CallerMemberName] ")}
	if d.Default == nil {
		edits = append(edits, r.insert(d.NameSpan.End, " = null"))
	}
	return r.fix("Add [CallerMemberName]", edits...)
}

// ApplyFixes applies the first suggested fix of each diagnostic to the
// source of f. Edits overlapping an earlier one are skipped.
func (a *Analyzer) ApplyFixes(f *syntax.File, diags []analysis.Diagnostic) []byte {
	tf := a.files[f]
	if tf == nil {
		return f.Source
	}
	type edit struct {
		start, end int
		text       []byte
	}
	var edits []edit
	for _, d := range diags {
		if len(d.SuggestedFixes) == 0 {
			continue
		}
		for _, e := range d.SuggestedFixes[0].TextEdits {
			edits = append(edits, edit{start: tf.Offset(e.Pos), end: tf.Offset(e.End), text: e.NewText})
		}
	}
	slices.SortStableFunc(edits, func(x, y edit) int { return cmp.Compare(x.start, y.start) })

	out := make([]byte, 0, len(f.Source))
	last := 0
	for _, e := range edits {
		if e.start < last {
			continue
		}
		out = append(out, f.Source[last:e.start]...)
		out = append(out, e.text...)
		last = e.end
	}
	return append(out, f.Source[last:]...)
}
