// Package contract checks that a type and its base chain provide the
// property-changed event and a usable method that raises it.
package contract

import (
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// IssueKind identifies a contract violation.
type IssueKind uint8

const (
	// MissingEvent: the type implements the interface but neither it nor a
	// base class declares the event.
	MissingEvent IssueKind = iota + 1
	// MissingInvoker: the type declares the event but no method raises it.
	MissingInvoker
	// PrivateInvoker: the invoker of an unsealed type is private.
	PrivateInvoker
	// ShadowedEvent: the event hides an inherited one.
	ShadowedEvent
	// ShadowedInvoker: an invoker hides an inherited one without override.
	ShadowedInvoker
	// StructImplements: a value type implements the interface.
	StructImplements
	// MissingCallerMemberName: the invoker's name parameter lacks
	// [CallerMemberName].
	MissingCallerMemberName
)

var issueNames = [...]string{
	MissingEvent:            "missing-event",
	MissingInvoker:          "missing-invoker",
	PrivateInvoker:          "private-invoker",
	ShadowedEvent:           "shadowed-event",
	ShadowedInvoker:         "shadowed-invoker",
	StructImplements:        "struct-implements",
	MissingCallerMemberName: "missing-caller-member-name",
}

func (k IssueKind) String() string {
	if int(k) < len(issueNames) && issueNames[k] != "" {
		return issueNames[k]
	}
	return "unknown"
}

// Issue is one violation.
type Issue struct {
	Kind IssueKind
	// Symbol is the offending member, or the type itself.
	Symbol symbols.Symbol
	// Hidden is the inherited member hidden by Symbol.
	Hidden symbols.Symbol
	// Param is the name parameter for MissingCallerMemberName.
	Param *symbols.Parameter
	// At is the offending syntax: a base-list entry, an event or a method.
	At syntax.Span
	// File holds At.
	File *syntax.File
}

// Result is the contract of one type.
type Result struct {
	Type *symbols.Type
	// Notifying is set when the type or a base implements the interface.
	Notifying bool
	// Event is the event that satisfies the contract, declared in the type
	// or inherited. Nil when it is missing or outside the compilation.
	Event    *symbols.Event
	Invokers []*symbols.Method
	Issues   []Issue
	// Indeterminate is set when the base chain leaves the compilation, so
	// missing members cannot be reported.
	Indeterminate bool
}

// Conforming reports whether the type notifies without issues.
func (r Result) Conforming() bool { return r.Notifying && len(r.Issues) == 0 }

// Checker checks types within one compilation.
type Checker struct {
	comp  *symbols.Compilation
	notes *notify.Recognizer
}

// New returns a Checker.
func New(comp *symbols.Compilation, notes *notify.Recognizer) *Checker {
	return &Checker{comp: comp, notes: notes}
}

// Check checks t.
func (c *Checker) Check(t *symbols.Type) Result {
	res := Result{Type: t}
	if t == nil || !t.FromSource() {
		return res
	}
	names := c.notes.Names()

	if t.IsValueType() {
		if ref, td := c.declaredInterface(t); ref != nil {
			res.Notifying = true
			res.Issues = append(res.Issues, Issue{Kind: StructImplements, Symbol: t, At: ref.Span, File: td.File})
		}
		return res
	}

	res.Notifying = c.IsNotifying(t)
	if !res.Notifying || t.TypeKind() == syntax.Interface {
		return res
	}
	res.Indeterminate = t.LeavesCompilation() && !c.knownNotifyingBase(t)

	own := t.EventNamed(names.EventName)
	if own != nil && !c.notes.IsEvent(own) {
		own = nil
	}
	inherited, inheritedKnown := c.inheritedEvent(t)
	switch {
	case own != nil:
		res.Event = own
		if (inherited != nil || inheritedKnown) && !own.Modifiers().Has(syntax.New) && !own.Modifiers().Has(syntax.Override) {
			iss := Issue{Kind: ShadowedEvent, Symbol: own, At: own.Decl().Span, File: own.Decl().Parent.File}
			if inherited != nil {
				iss.Hidden = inherited
			}
			res.Issues = append(res.Issues, iss)
		}
	case inherited != nil:
		res.Event = inherited
	case !inheritedKnown && !res.Indeterminate:
		td := t.Decls()[0]
		res.Issues = append(res.Issues, Issue{Kind: MissingEvent, Symbol: t, At: td.NameSpan, File: td.File})
	}

	res.Invokers = c.notes.Invokers(t)
	if own != nil && own.FieldLike() && len(res.Invokers) == 0 && !own.Modifiers().Has(syntax.Abstract) &&
		!c.inheritsInvoker(t) {
		res.Issues = append(res.Issues, Issue{Kind: MissingInvoker, Symbol: own, At: own.Decl().Span, File: own.Decl().Parent.File})
	}

	for _, m := range res.Invokers {
		d := m.Decl()
		if d == nil {
			continue
		}
		file := d.Parent.File
		if !t.IsSealed() && m.Accessibility() == symbols.AccessPrivate {
			res.Issues = append(res.Issues, Issue{Kind: PrivateInvoker, Symbol: m, At: d.NameSpan, File: file})
		}
		if hidden := c.hiddenInvoker(t, m); hidden != nil {
			res.Issues = append(res.Issues, Issue{Kind: ShadowedInvoker, Symbol: m, Hidden: hidden, At: d.NameSpan, File: file})
		}
		if p := c.plainNameParam(m); p != nil {
			res.Issues = append(res.Issues, Issue{Kind: MissingCallerMemberName, Symbol: m, Param: p, At: p.Decl().Span, File: file})
		}
	}
	return res
}

// IsNotifying reports whether t or a base implements the notification
// interface or derives from a known notifying base.
func (c *Checker) IsNotifying(t *symbols.Type) bool {
	if t == nil {
		return false
	}
	names := c.notes.Names()
	for _, i := range t.AllInterfaces() {
		if (qualname.BoundType{Type: i}).Matches(&names.NotifyInterface) {
			return true
		}
	}
	if c.knownNotifyingBase(t) {
		return true
	}
	check := func(u *symbols.Type) bool {
		for _, ref := range u.UnresolvedBases() {
			m := qualname.BaseType{Ref: ref}
			if m.Matches(&names.NotifyInterface) || qualname.Any(m, names.NotifyingBases) {
				return true
			}
		}
		return false
	}
	if check(t) {
		return true
	}
	for b := range t.BaseTypes() {
		if check(b) {
			return true
		}
	}
	return false
}

func (c *Checker) knownNotifyingBase(t *symbols.Type) bool {
	for b := range t.BaseTypes() {
		if b.KnownNotifying() {
			return true
		}
	}
	return false
}

// declaredInterface returns the base-list entry naming the notification
// interface on one of t's declarations.
func (c *Checker) declaredInterface(t *symbols.Type) (*syntax.TypeRef, *syntax.TypeDecl) {
	target := &c.notes.Names().NotifyInterface
	for _, td := range t.Decls() {
		for _, ref := range td.Bases {
			if bt := c.comp.ResolveType(ref, td); bt != nil {
				if (qualname.BoundType{Type: bt}).Matches(target) {
					return ref, td
				}
				continue
			}
			if (qualname.BaseType{Ref: ref}).Matches(target) {
				return ref, td
			}
		}
	}
	return nil, nil
}

// inheritedEvent returns the event declared by the nearest source base
// class. known is set when a base outside the compilation is known to
// provide it.
func (c *Checker) inheritedEvent(t *symbols.Type) (e *symbols.Event, known bool) {
	name := c.notes.Names().EventName
	for b := range t.BaseTypes() {
		if b.KnownNotifying() {
			return nil, true
		}
		if ev := b.EventNamed(name); ev != nil && c.notes.IsEvent(ev) {
			return ev, false
		}
	}
	return nil, false
}

func (c *Checker) inheritsInvoker(t *symbols.Type) bool {
	for b := range t.BaseTypes() {
		if b.KnownNotifying() || len(c.notes.Invokers(b)) > 0 {
			return true
		}
	}
	return false
}

// hiddenInvoker returns the inherited invoker with m's name and signature
// when m neither overrides it nor hides it with `new`.
func (c *Checker) hiddenInvoker(t *symbols.Type, m *symbols.Method) *symbols.Method {
	if m.Modifiers().Has(syntax.Override) || m.Modifiers().Has(syntax.New) {
		return nil
	}
	for b := range t.BaseTypes() {
		for _, bm := range b.MethodsNamed(m.Name()) {
			if bm.Signature() == m.Signature() && bm.Accessibility() != symbols.AccessPrivate && c.notes.IsInvoker(bm) {
				return bm
			}
		}
	}
	return nil
}

// plainNameParam returns the single string parameter of an invoker that
// could carry [CallerMemberName] but does not.
func (c *Checker) plainNameParam(m *symbols.Method) *symbols.Parameter {
	if m.Modifiers().Has(syntax.Override) || len(m.Params()) != 1 {
		return nil
	}
	p := m.Params()[0]
	if p.Decl() == nil || p.RefKind() != syntax.ByValue || c.notes.IsCallerMemberName(p) {
		return nil
	}
	if !(qualname.TypeName{Ref: p.TypeRef()}).Matches(&c.notes.Names().String) {
		return nil
	}
	return p
}
