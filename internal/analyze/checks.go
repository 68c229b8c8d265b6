package analyze

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/phobologic/notifyguard/internal/backing"
	"github.com/phobologic/notifyguard/internal/contract"
	"github.com/phobologic/notifyguard/internal/mutation"
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/recursion"
	"github.com/phobologic/notifyguard/internal/rules"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// checkType runs every check on one type declaration. Invariant violations
// from the query layer abort the type and become an internal-error finding;
// any other panic propagates.
func (a *Analyzer) checkType(r *reporter, td *syntax.TypeDecl) {
	t := a.comp.TypeOf(td)
	if t == nil {
		return
	}
	defer a.recoverInvariant(r, td, t)

	res := a.checker.Check(t)
	for _, iss := range res.Issues {
		if iss.File == r.file && within(iss.At, td.Span) && !withinNested(iss.At, td) {
			a.reportIssue(r, iss)
		}
	}
	notifying := res.Notifying && !t.IsValueType()

	for _, pd := range td.Properties {
		if p := a.comp.PropertyFor(pd); p != nil {
			a.checkProperty(r, p, notifying)
		}
	}
	for _, md := range td.Methods {
		if m := a.comp.MethodFor(md); m != nil {
			a.checkRecursion(r, m)
		}
	}
	if notifying {
		a.checkNameLiterals(r, td, t)
	}
}

// recoverInvariant must be deferred directly. It turns an invariant
// violation into an internal-error finding on td and re-panics anything
// else.
func (a *Analyzer) recoverInvariant(r *reporter, td *syntax.TypeDecl, t *symbols.Type) {
	v := recover()
	if v == nil {
		return
	}
	ie, ok := v.(*query.InvariantError)
	if !ok {
		panic(v)
	}
	a.log.Error("internal error",
		slog.String("type", t.FullName()),
		slog.String("file", r.file.Path),
		slog.String("err", ie.Error()),
	)
	r.report(rules.InternalError, td.NameSpan, fmt.Sprintf("internal error while analyzing %s: %s", t.Name(), ie.Msg))
}

func within(s, outer syntax.Span) bool { return s.Start >= outer.Start && s.End <= outer.End }

func withinNested(s syntax.Span, td *syntax.TypeDecl) bool {
	for _, n := range td.Nested {
		if within(s, n.Span) {
			return true
		}
	}
	return false
}

func (a *Analyzer) reportIssue(r *reporter, iss contract.Issue) {
	switch iss.Kind {
	case contract.StructImplements:
		r.report(rules.StructMustNotNotify, iss.At,
			fmt.Sprintf("struct %s must not implement INotifyPropertyChanged", iss.Symbol.Name()))
	case contract.MissingInvoker:
		r.report(rules.EventWithoutInvoker, iss.At,
			fmt.Sprintf("event %s is declared without an invoker", iss.Symbol.Name()))
	case contract.PrivateInvoker:
		m := iss.Symbol.(*symbols.Method)
		r.report(rules.InvokerShouldBeProtected, iss.At,
			fmt.Sprintf("invoker %s should be protected because %s is not sealed", m.Name(), m.Owner().Name()),
			r.protectedFix(m))
	case contract.ShadowedEvent:
		d := r.report(rules.DontShadowEvent, iss.At,
			fmt.Sprintf("event %s shadows the inherited event", iss.Symbol.Name()))
		if e, ok := iss.Hidden.(*symbols.Event); ok && e.Decl() != nil {
			r.related(d, e.Decl().Parent.File, e.Decl().Span, "inherited event")
		}
	case contract.ShadowedInvoker:
		hidden := iss.Hidden.(*symbols.Method)
		d := r.report(rules.DontHideInvoker, iss.At,
			fmt.Sprintf("%s hides the invoker inherited from %s", iss.Symbol.Name(), hidden.Owner().Name()))
		if hd := hidden.Decl(); hd != nil {
			r.related(d, hd.Parent.File, hd.NameSpan, "inherited invoker")
		}
	case contract.MissingCallerMemberName:
		r.report(rules.UseCallerMemberName, iss.At,
			fmt.Sprintf("parameter %s of %s should be marked [CallerMemberName]", iss.Param.Name(), iss.Symbol.Name()),
			r.callerMemberNameFix(iss.Param))
	}
}

func (a *Analyzer) checkProperty(r *reporter, p *symbols.Property, notifying bool) {
	for _, res := range a.detector.SelfReference(p) {
		e := res.Chain[0]
		r.report(rules.MemberIsRecursive, e.At,
			fmt.Sprintf("%s of %s accesses %s and recurses", accessorWord(e.Accessor), p.Name(), p.Name()))
	}
	if res := a.detector.Follow(p); len(res.Chain) > 1 {
		a.reportCycle(r, p, res)
	}

	if !notifying || p.IsStatic() {
		return
	}
	if p.IsAuto() {
		if mutablePublic(p) {
			r.report(rules.MutablePublicPropertyShouldNotify, p.Decl().NameSpan,
				fmt.Sprintf("property %s should notify when set", p.Name()))
		}
		return
	}

	cls := a.classifier.Classify(p)
	b := cls.Binding
	switch b.Status {
	case backing.Mismatch:
		d := r.report(rules.GetAndSetDifferentFields, b.GetterExpr.Pos(),
			fmt.Sprintf("property %s gets %s but sets %s", p.Name(), b.GetterField.Name(), b.SetterField.Name()))
		r.related(d, r.file, b.SetterExpr.Pos(), "field assigned here")
		// The remaining rules assume a single backing field.
		return
	case backing.Bound:
		if b.Field.Accessibility() == symbols.AccessPrivate && !backing.NameMatches(p.Name(), b.Field.Name()) {
			r.report(rules.BackingFieldNameMustMatch, b.GetterExpr.Pos(),
				fmt.Sprintf("backing field %s should be named %s", b.Field.Name(), backing.ExpectedName(p.Name())))
		}
	}

	switch cls.Outcome {
	case mutation.MissingAssignment:
		msg := fmt.Sprintf("setter of %s does not assign its backing field", p.Name())
		if cls.Field != nil {
			msg = fmt.Sprintf("setter of %s does not assign %s", p.Name(), cls.Field.Name())
		}
		r.report(rules.SetterShouldAssignField, p.Setter().Span, msg)
	case mutation.MissingNotification:
		if mutablePublic(p) {
			r.report(rules.MutablePublicPropertyShouldNotify, p.Decl().NameSpan,
				fmt.Sprintf("property %s should notify when set", p.Name()))
		}
	case mutation.BadEqualityCheck:
		fix := cls.EqualityFix
		r.report(rules.DontUseInstanceEquals, fix.Span,
			fmt.Sprintf("use == instead of Equals when comparing %s", typeName(p.TypeRef())),
			r.fix("Compare with the equality operator", r.edit(fix.Span, fix.Text)))
	}

	if cls.Outcome != mutation.ValidVanilla && cls.Outcome != mutation.BadEqualityCheck {
		return
	}
	if cls.Guard == nil {
		r.report(rules.CheckIfDifferentBeforeNotifying, cls.Assignment.Span,
			fmt.Sprintf("check that value differs from %s before notifying", cls.Field.Name()))
	} else {
		if cls.WrongGuardField() {
			r.report(rules.GuardComparesWrongField, cls.Guard.Other.Pos(),
				fmt.Sprintf("the guard compares value with %s but the setter assigns %s", cls.GuardField.Name(), cls.Field.Name()))
		}
		if cls.ReferenceEqualsOnValueType {
			r.report(rules.ReferenceEqualsIsAlwaysFalse, cls.Guard.Compare.Pos(),
				fmt.Sprintf("ReferenceEquals on %s boxes both arguments and is always false", typeName(p.TypeRef())))
		}
	}
	if cls.NotifiesBeforeAssign {
		for _, n := range cls.Notifications {
			if n.Invocation.Span.Start < cls.Assignment.Span.Start {
				r.report(rules.NotifyAfterAssign, n.Invocation.Span,
					fmt.Sprintf("notify after assigning %s", cls.Field.Name()))
				break
			}
		}
	}
}

// mutablePublic reports whether p can be set from outside the type.
func mutablePublic(p *symbols.Property) bool {
	set := p.Setter()
	if set == nil || set.Kind != syntax.Set || p.IsStatic() {
		return false
	}
	if p.Modifiers().Has(syntax.Abstract) || p.Accessibility() != symbols.AccessPublic {
		return false
	}
	return p.SetterAccessibility() != symbols.AccessPrivate
}

func (a *Analyzer) checkRecursion(r *reporter, m *symbols.Method) {
	if res := a.detector.Follow(m); res.Cycle {
		a.reportCycle(r, m, res)
	}
}

// reportCycle reports a delegation cycle at the edge leaving sym when the
// cycle returns to sym. Members that merely lead into a cycle are not
// reported.
func (a *Analyzer) reportCycle(r *reporter, sym symbols.Symbol, res recursion.Result) {
	closing, ok := res.Closing()
	if !ok || closing.Callee != sym {
		return
	}
	names := []string{sym.Name()}
	for _, e := range res.Chain {
		names = append(names, e.Callee.Name())
	}
	r.report(rules.MemberIsRecursive, res.Chain[0].At,
		fmt.Sprintf("%s is recursive: %s", sym.Name(), strings.Join(names, " -> ")))
}

// checkNameLiterals reports notifications that pass a property name as a
// string literal.
func (a *Analyzer) checkNameLiterals(r *reporter, td *syntax.TypeDecl, t *symbols.Type) {
	scan := func(b syntax.Body, s *symbols.Scope) {
		for _, c := range a.notes.FindAll(b, s) {
			a.checkNameLiteral(r, t, c)
		}
	}
	for _, pd := range td.Properties {
		p := a.comp.PropertyFor(pd)
		if p == nil {
			continue
		}
		for _, acc := range []*syntax.Accessor{pd.Get, pd.Set} {
			if acc != nil {
				scan(acc.Body, a.comp.PropertyScope(p, acc))
			}
		}
	}
	for _, md := range td.Methods {
		if m := a.comp.MethodFor(md); m != nil {
			scan(m.Body(), a.comp.MethodScope(m))
		}
	}
}

func (a *Analyzer) checkNameLiteral(r *reporter, t *symbols.Type, c notify.Call) {
	if c.NameArg == nil || !c.NameKnown || c.Name == "" {
		return
	}
	lit, ok := syntax.Unparen(c.NameArg.Value).(*syntax.Literal)
	if !ok || lit.Kind != syntax.StringLit {
		return
	}
	if _, ok := symbols.LookupMember(t, c.Name).(*symbols.Property); !ok {
		return
	}
	text := "nameof(" + c.Name + ")"
	r.report(rules.UseNameof, lit.Span,
		fmt.Sprintf("use %s instead of the string literal", text),
		r.fix("Use "+text, r.edit(lit.Span, text)))
}

func accessorWord(k syntax.AccessorKind) string {
	switch k {
	case syntax.Get:
		return "getter"
	case syntax.Set:
		return "setter"
	case syntax.Init:
		return "init accessor"
	}
	return "accessor"
}

func typeName(ref *syntax.TypeRef) string {
	if ref == nil {
		return "the value"
	}
	return ref.String()
}
