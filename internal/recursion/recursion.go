// Package recursion follows delegation edges between members and reports
// cycles.
//
// A method delegates when its whole body is a call to another method that
// passes its own parameters through one-to-one; an omitted trailing
// [CallerMemberName] parameter still counts. A property delegates when its
// getter only reads another property. Walks are bounded by a visited set
// keyed by declaration identity, so any input terminates.
package recursion

import (
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/scratch"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// Edge is one delegation step.
type Edge struct {
	Caller symbols.Symbol
	Callee symbols.Symbol
	// Accessor is set for property edges.
	Accessor syntax.AccessorKind
	// At is the expression that delegates.
	At syntax.Span
}

// Result is the outcome of following delegation from a member.
type Result struct {
	Chain []Edge
	// Cycle is set when the last edge of Chain returns to a visited member.
	Cycle bool
}

// Closing returns the edge that closes the cycle.
func (r Result) Closing() (Edge, bool) {
	if !r.Cycle || len(r.Chain) == 0 {
		return Edge{}, false
	}
	return r.Chain[len(r.Chain)-1], true
}

// Detector follows delegation within one compilation.
type Detector struct {
	comp  *symbols.Compilation
	notes *notify.Recognizer
}

// New returns a Detector.
func New(comp *symbols.Compilation, notes *notify.Recognizer) *Detector {
	return &Detector{comp: comp, notes: notes}
}

// Follow walks delegation edges starting at sym, a method or property,
// until the chain ends or reaches a member already visited.
func (d *Detector) Follow(sym symbols.Symbol) Result {
	visited := scratch.Visited()
	defer visited.Release()

	var res Result
	if sym == nil {
		return res
	}
	visited.Add(sym)
	cur := sym
	for {
		e, ok := d.next(cur)
		if !ok {
			return res
		}
		res.Chain = append(res.Chain, e)
		if !visited.Add(e.Callee) {
			res.Cycle = true
			return res
		}
		cur = e.Callee
	}
}

func (d *Detector) next(sym symbols.Symbol) (Edge, bool) {
	switch s := sym.(type) {
	case *symbols.Method:
		return d.methodEdge(s)
	case *symbols.Property:
		return d.getterEdge(s)
	}
	return Edge{}, false
}

func (d *Detector) methodEdge(m *symbols.Method) (Edge, bool) {
	if m.Decl() == nil {
		return Edge{}, false
	}
	inv, ok := syntax.Unparen(query.SingleExpression(m.Body())).(*syntax.Invocation)
	if !ok {
		return Edge{}, false
	}
	s := d.comp.MethodScope(m)
	callee := d.comp.BindInvocation(inv, s)
	if callee == nil || !d.passesThrough(m, callee, inv, s) {
		return Edge{}, false
	}
	return Edge{Caller: m, Callee: callee, At: inv.Span}, true
}

// passesThrough reports whether inv forwards each parameter of caller to
// the parameter of callee at the same position.
func (d *Detector) passesThrough(caller, callee *symbols.Method, inv *syntax.Invocation, s *symbols.Scope) bool {
	params := caller.Params()
	if len(inv.Args) != len(params) {
		return false
	}
	targets := callee.Params()
	switch {
	case len(targets) == len(params):
	case len(targets) == len(params)+1:
		last := targets[len(targets)-1]
		if !last.Optional() || !d.notes.IsCallerMemberName(last) {
			return false
		}
	default:
		return false
	}
	for i, a := range inv.Args {
		if a.Name != "" && a.Name != targets[i].Name() {
			return false
		}
		if a.Ref != params[i].RefKind() {
			return false
		}
		p, ok := d.comp.BindExpr(a.Value, s).(*symbols.Parameter)
		if !ok || p.Ordinal() != i || p.Implicit() {
			return false
		}
	}
	return true
}

func (d *Detector) getterEdge(p *symbols.Property) (Edge, bool) {
	get := p.Getter()
	if get == nil {
		return Edge{}, false
	}
	e := query.SingleExpression(get.Body)
	if e == nil {
		return Edge{}, false
	}
	switch x := syntax.Unparen(e).(type) {
	case *syntax.Ident:
	case *syntax.MemberAccess:
		if x.Conditional || !query.IsImplicitReceiver(x.X) {
			return Edge{}, false
		}
	default:
		return Edge{}, false
	}
	target, ok := d.comp.BindExpr(e, d.comp.PropertyScope(p, get)).(*symbols.Property)
	if !ok {
		return Edge{}, false
	}
	return Edge{Caller: p, Callee: target, Accessor: syntax.Get, At: e.Pos()}, true
}

// SelfReference reports accessors of p that access p itself: any read in
// the getter, or an assignment to p in the setter. Each is a cycle of
// length one.
func (d *Detector) SelfReference(p *symbols.Property) []Result {
	var out []Result
	if get := p.Getter(); get != nil {
		s := d.comp.PropertyScope(p, get)
		if at, ok := d.selfAccess(p, get.Body, s, false); ok {
			out = append(out, selfCycle(p, syntax.Get, at))
		}
	}
	if set := p.Setter(); set != nil {
		s := d.comp.PropertyScope(p, set)
		if at, ok := d.selfAccess(p, set.Body, s, true); ok {
			out = append(out, selfCycle(p, set.Kind, at))
		}
	}
	return out
}

func selfCycle(p *symbols.Property, acc syntax.AccessorKind, at syntax.Span) Result {
	return Result{Chain: []Edge{{Caller: p, Callee: p, Accessor: acc, At: at}}, Cycle: true}
}

func (d *Detector) selfAccess(p *symbols.Property, b syntax.Body, s *symbols.Scope, writesOnly bool) (syntax.Span, bool) {
	var at syntax.Span
	found := false
	refersToSelf := func(e syntax.Expr) bool {
		switch x := syntax.Unparen(e).(type) {
		case *syntax.Ident:
		case *syntax.MemberAccess:
			if x.Conditional || !query.IsImplicitReceiver(x.X) {
				return false
			}
		default:
			return false
		}
		sym, ok := d.comp.BindExpr(e, s).(*symbols.Property)
		return ok && sym == p
	}
	syntax.InspectBody(b, func(n syntax.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *syntax.Invocation:
			if query.IsNameOf(n) {
				return false
			}
		case *syntax.Assign:
			if writesOnly && refersToSelf(n.Left) {
				at, found = n.Left.Pos(), true
				return false
			}
		case *syntax.Ident, *syntax.MemberAccess:
			if !writesOnly && refersToSelf(n.(syntax.Expr)) {
				at, found = n.Pos(), true
				return false
			}
		}
		return true
	})
	return at, found
}
