// Package notify recognizes code that raises the property-changed event:
// direct event invocations, calls to invoker methods, and try-set helpers
// that assign and notify in one call.
package notify

import (
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/scratch"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// Kind is how a call notifies.
type Kind uint8

const (
	// Raise invokes the event directly.
	Raise Kind = iota + 1
	// InvokerCall calls a method that raises the event.
	InvokerCall
	// TrySetCall calls a helper that assigns a ref field and notifies.
	TrySetCall
)

// Call is a recognized notification.
type Call struct {
	Kind       Kind
	Invocation *syntax.Invocation
	// Target is the bound invoker or helper; nil for raises and for calls
	// into members that are not in the compilation.
	Target *symbols.Method
	// Name is the notified property name when NameKnown is set.
	Name      string
	NameKnown bool
	// CallerMember is set when the name is supplied by [CallerMemberName].
	CallerMember bool
	// NameArg is the argument carrying the name, nil when implicit.
	NameArg *syntax.Arg
}

// TrySet is a recognized try-set helper call.
type TrySet struct {
	Call
	// RefArg is the `ref field` argument and Field the field it binds to.
	RefArg *syntax.Arg
	Field  *symbols.Field
	// ValueArg is the argument passed as the new value.
	ValueArg *syntax.Arg
}

// Recognizer identifies notifications against a compilation and a names table.
type Recognizer struct {
	comp  *symbols.Compilation
	names *qualname.Names
}

// New returns a Recognizer.
func New(comp *symbols.Compilation, names *qualname.Names) *Recognizer {
	return &Recognizer{comp: comp, names: names}
}

// Names returns the table the recognizer matches against.
func (r *Recognizer) Names() *qualname.Names { return r.names }

// IsEvent reports whether sym is the property-changed event.
func (r *Recognizer) IsEvent(sym symbols.Symbol) bool {
	e, ok := sym.(*symbols.Event)
	if !ok || e.Name() != r.names.EventName {
		return false
	}
	if e.TypeRef() == nil {
		return true
	}
	return qualname.TypeName{Ref: e.TypeRef()}.Matches(&r.names.EventHandler)
}

// IsCallerMemberName reports whether p is marked [CallerMemberName].
func (r *Recognizer) IsCallerMemberName(p *symbols.Parameter) bool {
	for _, a := range p.Attributes() {
		if (qualname.AttributeName{Attr: a}).Matches(&r.names.CallerMemberName) {
			return true
		}
	}
	return false
}

// Find returns the notification performed by inv, if any.
func (r *Recognizer) Find(inv *syntax.Invocation, s *symbols.Scope) (Call, bool) {
	if c, ok := r.raise(inv, s); ok {
		return c, true
	}
	if ts, ok := r.TrySet(inv, s); ok {
		return ts.Call, true
	}
	return r.invokerCall(inv, s)
}

// FindAll returns the notifications in a body in source order. Calls nested
// inside conditions are included.
func (r *Recognizer) FindAll(b syntax.Body, s *symbols.Scope) []Call {
	var out []Call
	syntax.InspectBody(b, func(n syntax.Node) bool {
		if inv, ok := n.(*syntax.Invocation); ok {
			if c, ok := r.Find(inv, s); ok {
				out = append(out, c)
				return false
			}
		}
		return true
	})
	return out
}

// eventRef reports whether e refers to the property-changed event, either
// directly or through a local copied from it.
func (r *Recognizer) eventRef(e syntax.Expr, s *symbols.Scope) bool {
	sym := r.comp.BindExpr(e, s)
	if r.IsEvent(sym) {
		return true
	}
	if l, ok := sym.(*symbols.Local); ok && l.Decl() != nil && l.Decl().Init != nil {
		return r.IsEvent(r.comp.BindExpr(l.Decl().Init, s))
	}
	return false
}

func (r *Recognizer) raise(inv *syntax.Invocation, s *symbols.Scope) (Call, bool) {
	fun := syntax.Unparen(inv.Fun)
	if ma, ok := fun.(*syntax.MemberAccess); ok && ma.Name == "Invoke" {
		fun = ma.X
	}
	if !r.eventRef(fun, s) || len(inv.Args) != 2 {
		return Call{}, false
	}
	c := Call{Kind: Raise, Invocation: inv}
	r.nameFromArgs(&c, inv.Args[1], s)
	return c, true
}

// nameFromArgs fills the name from an event-args expression.
func (r *Recognizer) nameFromArgs(c *Call, arg *syntax.Arg, s *symbols.Scope) {
	obj, ok := syntax.Unparen(arg.Value).(*syntax.NewObject)
	if !ok || len(obj.Args) != 1 || !(qualname.TypeName{Ref: obj.Type}).Matches(&r.names.EventArgs) {
		return
	}
	r.nameFromArg(c, obj.Args[0], s)
}

// nameFromArg fills the name from a string-valued argument.
func (r *Recognizer) nameFromArg(c *Call, arg *syntax.Arg, s *symbols.Scope) {
	c.NameArg = arg
	if name, ok := query.ConstantName(arg.Value); ok {
		c.Name, c.NameKnown = name, true
		return
	}
	if _, ok := syntax.Unparen(arg.Value).(*syntax.NewObject); ok {
		r.nameFromArgs(c, arg, s)
		return
	}
	if query.IsNullLiteral(arg.Value) || isEmptyString(arg.Value) {
		// null and "" mean "all properties changed".
		c.Name, c.NameKnown = "", true
	}
}

func isEmptyString(e syntax.Expr) bool {
	l, ok := syntax.Unparen(e).(*syntax.Literal)
	return ok && l.Kind == syntax.StringLit && l.Value == ""
}

func (r *Recognizer) invokerCall(inv *syntax.Invocation, s *symbols.Scope) (Call, bool) {
	name := query.CalledName(inv)
	if name == "" || name == "nameof" {
		return Call{}, false
	}
	target := r.comp.BindInvocation(inv, s)
	if target != nil {
		if !r.IsInvoker(target) {
			return Call{}, false
		}
	} else if !r.names.IsInvokerName(name) || !r.externalReceiver(inv, s) {
		return Call{}, false
	}

	c := Call{Kind: InvokerCall, Invocation: inv, Target: target}
	r.resolveName(&c, inv.Args, target, s, 0)
	return c, true
}

// externalReceiver reports whether an unbound call may target an inherited
// member outside the compilation.
func (r *Recognizer) externalReceiver(inv *syntax.Invocation, s *symbols.Scope) bool {
	switch f := syntax.Unparen(inv.Fun).(type) {
	case *syntax.Ident:
	case *syntax.MemberAccess:
		switch syntax.Unparen(f.X).(type) {
		case *syntax.This, *syntax.Base:
		default:
			return false
		}
	default:
		return false
	}
	return s != nil && s.Type != nil && (s.Type.LeavesCompilation() || inheritsNotifying(s.Type))
}

func inheritsNotifying(t *symbols.Type) bool {
	for b := range t.BaseTypes() {
		if b.KnownNotifying() {
			return true
		}
	}
	return false
}

// resolveName determines the notified name of an invoker or helper call
// whose name-carrying argument is searched from position skip.
func (r *Recognizer) resolveName(c *Call, args []*syntax.Arg, target *symbols.Method, s *symbols.Scope, skip int) {
	if target != nil {
		p := r.nameParam(target)
		if p == nil {
			return
		}
		if a := argFor(args, p); a != nil {
			r.nameFromArg(c, a, s)
			return
		}
		if r.IsCallerMemberName(p) {
			r.callerMember(c, s)
		}
		return
	}
	if len(args) <= skip {
		r.callerMember(c, s)
		return
	}
	r.nameFromArg(c, args[len(args)-1], s)
}

func (r *Recognizer) callerMember(c *Call, s *symbols.Scope) {
	c.CallerMember = true
	if s != nil && s.Member != nil {
		c.Name, c.NameKnown = s.Member.Name(), true
	}
}

// nameParam returns the parameter of an invoker that carries the property
// name: the [CallerMemberName] parameter, else the last string parameter,
// else an event-args parameter.
func (r *Recognizer) nameParam(m *symbols.Method) *symbols.Parameter {
	var str, args *symbols.Parameter
	for _, p := range m.Params() {
		if r.IsCallerMemberName(p) {
			return p
		}
		switch {
		case qualname.TypeName{Ref: p.TypeRef()}.Matches(&r.names.String):
			str = p
		case qualname.TypeName{Ref: p.TypeRef()}.Matches(&r.names.EventArgs):
			args = p
		}
	}
	if str != nil {
		return str
	}
	return args
}

// argFor returns the argument bound to p by name or position.
func argFor(args []*syntax.Arg, p *symbols.Parameter) *syntax.Arg {
	for _, a := range args {
		if a.Name == p.Name() {
			return a
		}
	}
	if p.Ordinal() < len(args) && args[p.Ordinal()].Name == "" {
		return args[p.Ordinal()]
	}
	return nil
}

// IsInvoker reports whether m raises the property-changed event, directly
// or by delegating to another invoker. Methods outside the compilation are
// recognized by name.
func (r *Recognizer) IsInvoker(m *symbols.Method) bool {
	visited := scratch.Visited()
	defer visited.Release()
	return r.isInvoker(m, visited)
}

func (r *Recognizer) isInvoker(m *symbols.Method, visited *scratch.Lease) bool {
	if m == nil || !visited.Add(m) {
		return false
	}
	if m.Decl() == nil || m.Body().Empty() {
		// Abstract or partial declarations: trust the conventional name.
		return r.names.IsInvokerName(m.Name()) && m.Decl() != nil &&
			(m.Modifiers().Has(syntax.Abstract) || m.Modifiers().Has(syntax.Partial))
	}
	s := r.comp.MethodScope(m)
	found := false
	syntax.InspectBody(m.Body(), func(n syntax.Node) bool {
		if found {
			return false
		}
		inv, ok := n.(*syntax.Invocation)
		if !ok {
			return true
		}
		if _, ok := r.raise(inv, s); ok {
			found = true
			return false
		}
		if callee := r.comp.BindInvocation(inv, s); callee != nil {
			if r.isInvoker(callee, visited) {
				found = true
				return false
			}
		} else if r.names.IsInvokerName(query.CalledName(inv)) && r.externalReceiver(inv, s) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Invokers returns the methods declared directly in t that raise the event.
// Try-set helpers are not invokers.
func (r *Recognizer) Invokers(t *symbols.Type) []*symbols.Method {
	var out []*symbols.Method
	for _, m := range t.Methods() {
		if m.IsStatic() || hasRefParam(m) {
			continue
		}
		if r.IsInvoker(m) {
			out = append(out, m)
		}
	}
	return out
}

// TrySet recognizes `Helper(ref field, value, ...)` where Helper assigns the
// ref parameter and notifies. Unbound helpers qualify on shape alone when the
// receiver may be inherited from outside the compilation.
func (r *Recognizer) TrySet(inv *syntax.Invocation, s *symbols.Scope) (TrySet, bool) {
	if inv == nil || len(inv.Args) < 2 {
		return TrySet{}, false
	}
	refIdx := -1
	for i, a := range inv.Args {
		if a.Ref == syntax.ByRef {
			refIdx = i
			break
		}
	}
	if refIdx < 0 || refIdx+1 >= len(inv.Args) {
		return TrySet{}, false
	}
	target := r.comp.BindInvocation(inv, s)
	if target != nil {
		if !r.isTrySetHelper(target) {
			return TrySet{}, false
		}
	} else if !r.externalReceiver(inv, s) {
		return TrySet{}, false
	}

	ts := TrySet{
		Call:     Call{Kind: TrySetCall, Invocation: inv, Target: target},
		RefArg:   inv.Args[refIdx],
		Field:    query.InstanceField(r.comp, s, inv.Args[refIdx].Value),
		ValueArg: inv.Args[refIdx+1],
	}
	r.resolveName(&ts.Call, inv.Args, target, s, refIdx+2)
	return ts, true
}

// isTrySetHelper reports whether m takes a ref parameter followed by a value
// and notifies.
func (r *Recognizer) isTrySetHelper(m *symbols.Method) bool {
	ps := m.Params()
	hasRef := false
	for i, p := range ps {
		if p.RefKind() == syntax.ByRef && i+1 < len(ps) {
			hasRef = true
			break
		}
	}
	if !hasRef {
		return false
	}
	if m.Body().Empty() {
		return m.Modifiers().Has(syntax.Abstract)
	}
	return r.IsInvoker(m)
}

func hasRefParam(m *symbols.Method) bool {
	for _, p := range m.Params() {
		if p.RefKind() == syntax.ByRef {
			return true
		}
	}
	return false
}
