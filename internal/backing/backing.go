// Package backing resolves the field a property reads in its getter and
// writes in its setter.
package backing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// Status is the outcome of resolving a backing field.
type Status uint8

const (
	// Unresolved means the getter or setter does not read or write a field
	// directly; the property is out of scope for backing-field rules.
	Unresolved Status = iota
	// Bound means getter and setter use the same field.
	Bound
	// Mismatch means getter and setter use different fields.
	Mismatch
)

func (s Status) String() string {
	switch s {
	case Bound:
		return "bound"
	case Mismatch:
		return "mismatch"
	}
	return "unresolved"
}

// Binding relates a property to its backing field.
type Binding struct {
	Property *symbols.Property
	// Field is set when Status is Bound.
	Field       *symbols.Field
	GetterField *symbols.Field
	SetterField *symbols.Field
	// GetterExpr and SetterExpr are the field references found on each side.
	GetterExpr syntax.Expr
	SetterExpr syntax.Expr
	Status     Status
	// TrySet is set when the setter writes the field through a helper's ref
	// parameter.
	TrySet bool
}

// Resolver resolves bindings within one compilation.
type Resolver struct {
	comp  *symbols.Compilation
	notes *notify.Recognizer
}

// New returns a Resolver.
func New(comp *symbols.Compilation, notes *notify.Recognizer) *Resolver {
	return &Resolver{comp: comp, notes: notes}
}

// Resolve computes the binding of p. It never fails: shapes it does not
// recognize yield Unresolved.
func (r *Resolver) Resolve(p *symbols.Property) Binding {
	b := Binding{Property: p}
	if p == nil || p.IsAuto() {
		return b
	}
	b.GetterField, b.GetterExpr = r.getterField(p)
	b.SetterField, b.SetterExpr, b.TrySet = r.setterField(p)

	switch {
	case b.GetterField == nil || b.SetterField == nil:
		b.Status = Unresolved
	case b.GetterField == b.SetterField:
		b.Status = Bound
		b.Field = b.GetterField
	default:
		b.Status = Mismatch
	}
	return b
}

func (r *Resolver) getterField(p *symbols.Property) (*symbols.Field, syntax.Expr) {
	get := p.Getter()
	if get == nil {
		return nil, nil
	}
	e := query.SingleExpression(get.Body)
	if e == nil {
		return nil, nil
	}
	s := r.comp.PropertyScope(p, get)
	return query.InstanceField(r.comp, s, e), e
}

// setterField finds the field the setter assigns from value, either by a
// direct assignment anywhere in the body or through the ref argument of a
// try-set helper.
func (r *Resolver) setterField(p *symbols.Property) (*symbols.Field, syntax.Expr, bool) {
	set := p.Setter()
	if set == nil || set.Body.Empty() {
		return nil, nil, false
	}
	s := r.comp.PropertyScope(p, set)

	var field *symbols.Field
	var expr syntax.Expr
	trySet := false
	syntax.InspectBody(set.Body, func(n syntax.Node) bool {
		if field != nil {
			return false
		}
		switch n := n.(type) {
		case *syntax.Assign:
			if n.Op == "=" && query.IsValueParameter(r.comp, s, n.Right) {
				if f := query.InstanceField(r.comp, s, n.Left); f != nil {
					field, expr = f, n.Left
					return false
				}
			}
		case *syntax.Invocation:
			if ts, ok := r.notes.TrySet(n, s); ok && ts.Field != nil && query.IsValueParameter(r.comp, s, ts.ValueArg.Value) {
				field, expr, trySet = ts.Field, ts.RefArg.Value, true
				return false
			}
		}
		return true
	})
	return field, expr, trySet
}

// NameMatches reports whether a field name follows the property name:
// `name`, `_name` or `m_name` for property `Name`.
func NameMatches(property, field string) bool {
	for _, prefix := range []string{"m_", "_"} {
		if rest, ok := strings.CutPrefix(field, prefix); ok {
			field = rest
			break
		}
	}
	return field == ExpectedName(property) || field == property
}

// ExpectedName returns the camel-case field name for a property.
func ExpectedName(property string) string {
	r, n := utf8.DecodeRuneInString(property)
	if r == utf8.RuneError {
		return property
	}
	return string(unicode.ToLower(r)) + property[n:]
}
