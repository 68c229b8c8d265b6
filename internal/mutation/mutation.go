// Package mutation classifies property setters against the canonical
// notifying shape: guard, assign, notify.
package mutation

import (
	"github.com/phobologic/notifyguard/internal/backing"
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// Outcome is the classification of a setter.
type Outcome uint8

const (
	// NotApplicable: the property has no setter body.
	NotApplicable Outcome = iota
	ValidVanilla
	ValidTrySet
	MissingAssignment
	MissingNotification
	BadEqualityCheck
	// Indeterminate: the shape is not understood. Never reported as a defect.
	Indeterminate
)

var outcomeNames = [...]string{
	NotApplicable:       "not-applicable",
	ValidVanilla:        "valid-vanilla",
	ValidTrySet:         "valid-try-set-delegate",
	MissingAssignment:   "missing-assignment",
	MissingNotification: "missing-notification",
	BadEqualityCheck:    "bad-equality-check",
	Indeterminate:       "indeterminate",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Guard is the equality check that protects the assignment.
type Guard struct {
	If *syntax.If
	// Expr is the comparison including negations; Compare is the bare
	// comparison.
	Expr       syntax.Expr
	Compare    syntax.Expr
	Comparison Comparison
	// Negated is set when the condition holds for different values.
	Negated bool
	// EarlyReturn is set for `if (equal) return;`, clear for a nested
	// `if (different) { ... }`.
	EarlyReturn bool
	// Value and Other are the operands: the value parameter and what it is
	// compared with.
	Value syntax.Expr
	Other syntax.Expr
}

// Fix is a textual replacement.
type Fix struct {
	Span syntax.Span
	Text string
}

// Classification is the result of classifying one setter.
type Classification struct {
	Outcome  Outcome
	Property *symbols.Property
	Binding  backing.Binding
	Guard    *Guard
	// Assignment is the `field = value` assignment of a vanilla setter.
	Assignment    *syntax.Assign
	Notifications []notify.Call
	// Field is the assigned field, from the assignment or the try-set ref
	// argument.
	Field  *symbols.Field
	TrySet *notify.TrySet
	// NotifiesBeforeAssign is set when a notification precedes the assignment.
	NotifiesBeforeAssign bool
	// GuardField is the field the guard compares value with, when it is one.
	GuardField *symbols.Field
	// EqualityFix replaces an instance Equals guard with an operator.
	EqualityFix *Fix
	// ReferenceEqualsOnValueType is set when the guard uses ReferenceEquals
	// on a value-typed property, which never holds.
	ReferenceEqualsOnValueType bool
}

// WrongGuardField reports whether the guard compares value with a field
// other than the one assigned.
func (c Classification) WrongGuardField() bool {
	return c.GuardField != nil && c.Field != nil && c.GuardField != c.Field
}

// Classifier classifies setters within one compilation.
type Classifier struct {
	comp     *symbols.Compilation
	notes    *notify.Recognizer
	resolver *backing.Resolver
}

// New returns a Classifier.
func New(comp *symbols.Compilation, notes *notify.Recognizer, resolver *backing.Resolver) *Classifier {
	return &Classifier{comp: comp, notes: notes, resolver: resolver}
}

// Classify classifies the setter of p.
func (c *Classifier) Classify(p *symbols.Property) Classification {
	out := Classification{Property: p}
	if p == nil {
		return out
	}
	set := p.Setter()
	if set == nil || set.Body.Empty() {
		return out
	}
	out.Binding = c.resolver.Resolve(p)
	s := c.comp.PropertyScope(p, set)
	out.Notifications = c.notes.FindAll(set.Body, s)
	unknown := hasUnknown(set.Body)

	for _, n := range out.Notifications {
		if n.Kind != notify.TrySetCall {
			continue
		}
		ts, ok := c.notes.TrySet(n.Invocation, s)
		if !ok || ts.Field == nil || !query.IsValueParameter(c.comp, s, ts.ValueArg.Value) {
			out.Outcome = Indeterminate
			return out
		}
		out.TrySet, out.Field = &ts, ts.Field
		out.Outcome = ValidTrySet
		return out
	}

	stmts := query.Flatten(query.Statements(set.Body))
	rest := stmts
	if len(stmts) > 0 {
		if iff, ok := stmts[0].(*syntax.If); ok {
			switch {
			case query.IsEarlyReturnIf(iff):
				out.Guard = &Guard{If: iff, Expr: iff.Cond, EarlyReturn: true}
				rest = stmts[1:]
			case len(stmts) == 1 && iff.Else == nil:
				out.Guard = &Guard{If: iff, Expr: iff.Cond}
				rest = query.Flatten([]syntax.Stmt{iff.Then})
			}
		}
	}

	out.Assignment, out.Field = c.assignment(rest, s)
	if out.Assignment == nil {
		switch {
		case unknown || c.assignsFieldOtherwise(set.Body, s):
			out.Outcome = Indeterminate
		case out.Binding.GetterField != nil || len(out.Notifications) > 0:
			out.Outcome = MissingAssignment
			out.Field = out.Binding.GetterField
		default:
			out.Outcome = Indeterminate
		}
		return out
	}

	if len(out.Notifications) == 0 {
		if unknown {
			out.Outcome = Indeterminate
		} else {
			out.Outcome = MissingNotification
		}
		return out
	}
	for _, n := range out.Notifications {
		if n.Invocation.Span.Start < out.Assignment.Span.Start {
			out.NotifiesBeforeAssign = true
			break
		}
	}

	out.Outcome = ValidVanilla
	if out.Guard != nil {
		out.Outcome = c.guard(&out, s)
	}
	return out
}

// assignment finds `field = value;` among the top-level statements.
func (c *Classifier) assignment(stmts []syntax.Stmt, s *symbols.Scope) (*syntax.Assign, *symbols.Field) {
	for _, st := range stmts {
		es, ok := st.(*syntax.ExprStmt)
		if !ok {
			continue
		}
		a, ok := syntax.Unparen(es.X).(*syntax.Assign)
		if !ok || a.Op != "=" || !query.IsValueParameter(c.comp, s, a.Right) {
			continue
		}
		if f := query.InstanceField(c.comp, s, a.Left); f != nil {
			return a, f
		}
	}
	return nil, nil
}

// assignsFieldOtherwise reports whether the body writes an instance field
// in a shape other than a top-level `field = value`, such as a transformed
// value or a conditional branch.
func (c *Classifier) assignsFieldOtherwise(b syntax.Body, s *symbols.Scope) bool {
	found := false
	syntax.InspectBody(b, func(n syntax.Node) bool {
		if a, ok := n.(*syntax.Assign); ok && query.InstanceField(c.comp, s, a.Left) != nil {
			found = true
		}
		return !found
	})
	return found
}

func hasUnknown(b syntax.Body) bool {
	found := false
	syntax.InspectBody(b, func(n syntax.Node) bool {
		switch n.(type) {
		case *syntax.UnknownStmt, *syntax.UnknownExpr:
			found = true
		}
		return !found
	})
	return found
}

// guard fills the guard facts and returns the resulting outcome.
func (c *Classifier) guard(out *Classification, s *symbols.Scope) Outcome {
	g := out.Guard
	eq, ok := recognizeEquality(c.comp, s, g.Expr)
	if !ok {
		return Indeterminate
	}
	g.Compare, g.Comparison, g.Negated = eq.node, eq.kind, eq.negated
	switch {
	case query.IsValueParameter(c.comp, s, eq.left):
		g.Value, g.Other = eq.left, eq.right
	case query.IsValueParameter(c.comp, s, eq.right):
		g.Value, g.Other = eq.right, eq.left
	default:
		return Indeterminate
	}
	// An early return must fire on equal values, a wrapping if on different ones.
	if g.EarlyReturn == g.Negated {
		return Indeterminate
	}
	out.GuardField = query.InstanceField(c.comp, s, g.Other)

	p := out.Property
	class := c.comp.Classify(p.TypeRef(), p.Decl().Parent)
	switch g.Comparison {
	case CompareReferenceEquals:
		out.ReferenceEqualsOnValueType = class == symbols.ClassValue
	case CompareInstanceEquals:
		if class != symbols.ClassReference || c.safeEquals(p.TypeRef()) {
			break
		}
		op := "=="
		if g.Negated {
			op = "!="
		}
		file := p.Decl().Parent.File
		recv, arg := eq.left, eq.right
		if recv == nil || arg == nil {
			break
		}
		out.EqualityFix = &Fix{
			Span: eq.outer.Pos(),
			Text: file.Text(recv.Pos()) + " " + op + " " + file.Text(arg.Pos()),
		}
		return BadEqualityCheck
	}
	return ValidVanilla
}

func (c *Classifier) safeEquals(ref *syntax.TypeRef) bool {
	return qualname.Any(qualname.TypeName{Ref: ref}, c.notes.Names().SafeEquals)
}
