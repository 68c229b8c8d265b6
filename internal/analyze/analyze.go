// Package analyze runs the notification checks over a bound compilation and
// reports findings as analysis diagnostics.
//
// Every C# file of the compilation is registered in a token.FileSet, so
// diagnostics, related information and suggested fixes carry token.Pos
// values that the host can resolve to file, line and column.
package analyze

import (
	"cmp"
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"

	"github.com/phobologic/notifyguard/internal/backing"
	"github.com/phobologic/notifyguard/internal/contract"
	"github.com/phobologic/notifyguard/internal/mutation"
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/recursion"
	"github.com/phobologic/notifyguard/internal/rules"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
	"github.com/phobologic/notifyguard/internal/telemetry"
)

// Options configures an Analyzer.
type Options struct {
	// Disabled holds rule IDs that are not reported.
	Disabled []string
	// IncludeGenerated analyzes generated files too.
	IncludeGenerated bool
	// Names is the well-known names table; DefaultNames when nil.
	Names *qualname.Names
	// Logger receives internal errors; slog.Default when nil.
	Logger *slog.Logger
}

// Analyzer checks the files of one compilation. It is safe for concurrent
// use by multiple goroutines once constructed.
type Analyzer struct {
	comp     *symbols.Compilation
	disabled map[string]bool
	opts     Options
	log      *slog.Logger

	fset  *token.FileSet
	files map[*syntax.File]*token.File

	notes      *notify.Recognizer
	resolver   *backing.Resolver
	classifier *mutation.Classifier
	checker    *contract.Checker
	detector   *recursion.Detector
}

// New returns an Analyzer over comp.
func New(comp *symbols.Compilation, opts Options) *Analyzer {
	if opts.Names == nil {
		opts.Names = qualname.DefaultNames()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	a := &Analyzer{
		comp:     comp,
		disabled: make(map[string]bool, len(opts.Disabled)),
		opts:     opts,
		log:      log,
		fset:     token.NewFileSet(),
		files:    make(map[*syntax.File]*token.File, len(comp.Files())),
	}
	for _, id := range opts.Disabled {
		if r, ok := rules.Lookup(id); ok {
			a.disabled[r.ID] = true
		}
	}
	for _, f := range comp.Files() {
		tf := a.fset.AddFile(f.Path, -1, len(f.Source))
		tf.SetLinesForContent(f.Source)
		a.files[f] = tf
	}

	a.notes = notify.New(comp, opts.Names)
	a.resolver = backing.New(comp, a.notes)
	a.classifier = mutation.New(comp, a.notes, a.resolver)
	a.checker = contract.New(comp, a.notes)
	a.detector = recursion.New(comp, a.notes)
	return a
}

// FileSet returns the file set positions refer to.
func (a *Analyzer) FileSet() *token.FileSet { return a.fset }

// Run analyzes files concurrently and returns the diagnostics per file path.
// Files without findings are omitted.
func (a *Analyzer) Run(ctx context.Context, files []*syntax.File) (map[string][]analysis.Diagnostic, error) {
	results := make([][]analysis.Diagnostic, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.File(ctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyzing files: %w", err)
	}

	out := make(map[string][]analysis.Diagnostic)
	for i, f := range files {
		if len(results[i]) > 0 {
			out[f.Path] = results[i]
		}
	}
	return out, nil
}

// File analyzes the types declared in f. Diagnostics are ordered by
// position.
func (a *Analyzer) File(ctx context.Context, f *syntax.File) []analysis.Diagnostic {
	_, span := telemetry.Tracer().Start(ctx, "analyze.File")
	defer span.End()
	span.SetAttributes(attribute.String("file", f.Path))

	tf := a.files[f]
	if tf == nil {
		a.log.Warn("file is not part of the compilation", slog.String("file", f.Path))
		return nil
	}
	if !a.opts.IncludeGenerated && IsGenerated(f) {
		a.log.Debug("skipping generated file", slog.String("file", f.Path))
		span.SetAttributes(attribute.Bool("generated", true))
		return nil
	}

	r := a.newReporter(f, tf)
	types := f.AllTypes()
	for _, td := range types {
		a.checkType(r, td)
	}
	telemetry.RecordTypes(len(types))

	slices.SortStableFunc(r.out, func(x, y analysis.Diagnostic) int {
		return cmp.Or(cmp.Compare(x.Pos, y.Pos), strings.Compare(x.Category, y.Category))
	})
	span.SetAttributes(attribute.Int("findings", len(r.out)))
	return r.out
}

type findingKey struct {
	rule  string
	start int
}

// reporter collects the diagnostics of one file.
type reporter struct {
	a    *Analyzer
	file *syntax.File
	tf   *token.File
	supp suppressions
	seen map[findingKey]bool
	out  []analysis.Diagnostic
}

func (a *Analyzer) newReporter(f *syntax.File, tf *token.File) *reporter {
	return &reporter{
		a:    a,
		file: f,
		tf:   tf,
		supp: parseSuppressions(f),
		seen: map[findingKey]bool{},
	}
}

// report records a finding at the given span of the current file.
func (r *reporter) report(id string, at syntax.Span, msg string, fixes ...analysis.SuggestedFix) *analysis.Diagnostic {
	if r.a.disabled[id] {
		return nil
	}
	pos, end := r.pos(at.Start), r.pos(at.End)
	if r.supp.suppressed(id, r.tf.Line(pos)) {
		return nil
	}
	k := findingKey{rule: id, start: at.Start}
	if r.seen[k] {
		return nil
	}
	r.seen[k] = true

	telemetry.RecordFinding(id)
	r.out = append(r.out, analysis.Diagnostic{
		Pos:            pos,
		End:            end,
		Category:       id,
		Message:        msg,
		SuggestedFixes: fixes,
	})
	return &r.out[len(r.out)-1]
}

// pos converts a byte offset of the current file.
func (r *reporter) pos(offset int) token.Pos {
	return clampPos(r.tf, offset)
}

// related adds a pointer to another declaration, which may live in another
// file of the compilation.
func (r *reporter) related(d *analysis.Diagnostic, f *syntax.File, at syntax.Span, msg string) {
	if d == nil || f == nil {
		return
	}
	tf := r.a.files[f]
	if tf == nil {
		return
	}
	d.Related = append(d.Related, analysis.RelatedInformation{
		Pos:     clampPos(tf, at.Start),
		End:     clampPos(tf, at.End),
		Message: msg,
	})
}

func clampPos(tf *token.File, offset int) token.Pos {
	offset = max(0, min(offset, tf.Size()))
	return tf.Pos(offset)
}

// edit builds a text edit in the current file.
func (r *reporter) edit(at syntax.Span, text string) analysis.TextEdit {
	return analysis.TextEdit{Pos: r.pos(at.Start), End: r.pos(at.End), NewText: []byte(text)}
}

// insert builds an insertion at offset.
func (r *reporter) insert(offset int, text string) analysis.TextEdit {
	return r.edit(syntax.Span{Start: offset, End: offset}, text)
}
