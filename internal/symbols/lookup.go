package symbols

import "github.com/phobologic/notifyguard/internal/syntax"

// Scope is the binding context of a member body.
type Scope struct {
	Type *Type
	// Member is the *Property or *Method whose body is bound.
	Member Symbol
	// InSetter is set when binding a property's set or init accessor, where
	// `value` names the implicit parameter.
	InSetter bool
	locals   map[string]*Local
}

// PropertyScope returns the scope of one accessor of p.
func (c *Compilation) PropertyScope(p *Property, acc *syntax.Accessor) *Scope {
	s := &Scope{Type: p.owner, Member: p}
	if acc != nil {
		s.InSetter = acc.Kind == syntax.Set || acc.Kind == syntax.Init
		s.collectLocals(acc.Body)
	}
	return s
}

// MethodScope returns the scope of m's body.
func (c *Compilation) MethodScope(m *Method) *Scope {
	s := &Scope{Type: m.owner, Member: m}
	s.collectLocals(m.Body())
	return s
}

func (s *Scope) collectLocals(b syntax.Body) {
	syntax.InspectBody(b, func(n syntax.Node) bool {
		if d, ok := n.(*syntax.LocalDecl); ok {
			if s.locals == nil {
				s.locals = map[string]*Local{}
			}
			if _, dup := s.locals[d.Name]; !dup {
				s.locals[d.Name] = &Local{name: d.Name, owner: s.Member, decl: d}
			}
		}
		return true
	})
}

// LookupMember finds a field, property, event or method named name in t or
// its base chain. The most derived declaration wins; methods return the
// first overload.
func LookupMember(t *Type, name string) Symbol {
	if t == nil {
		return nil
	}
	if s := directMember(t, name); s != nil {
		return s
	}
	for b := range t.BaseTypes() {
		if s := directMember(b, name); s != nil {
			return s
		}
	}
	return nil
}

func directMember(t *Type, name string) Symbol {
	if f := t.FieldNamed(name); f != nil {
		return f
	}
	if p := t.PropertyNamed(name); p != nil {
		return p
	}
	if e := t.EventNamed(name); e != nil {
		return e
	}
	if ms := t.MethodsNamed(name); len(ms) > 0 {
		return ms[0]
	}
	return nil
}

// BindExpr returns the symbol an expression refers to: a local, parameter,
// member or type. It returns nil for anything else, including members of
// receivers other than this, base and type names.
func (c *Compilation) BindExpr(e syntax.Expr, s *Scope) Symbol {
	if s == nil {
		return nil
	}
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Ident:
		return c.bindName(e.Name, s)
	case *syntax.MemberAccess:
		switch x := syntax.Unparen(e.X).(type) {
		case *syntax.This:
			return LookupMember(s.Type, e.Name)
		case *syntax.Base:
			if s.Type == nil {
				return nil
			}
			return LookupMember(s.Type.base, e.Name)
		default:
			if t, ok := c.BindExpr(x, s).(*Type); ok {
				return LookupMember(t, e.Name)
			}
		}
	case *syntax.TypeExpr:
		if t := c.ResolveType(e.Type, s.decl()); t != nil {
			return t
		}
	}
	return nil
}

func (c *Compilation) bindName(name string, s *Scope) Symbol {
	if l, ok := s.locals[name]; ok {
		return l
	}
	switch m := s.Member.(type) {
	case *Property:
		if s.InSetter && name == "value" && m.value != nil {
			return m.value
		}
	case *Method:
		for _, p := range m.params {
			if p.name == name {
				return p
			}
		}
	}
	for t := s.Type; t != nil; t = t.containing {
		if sym := LookupMember(t, name); sym != nil {
			return sym
		}
	}
	return c.ResolveType(&syntax.TypeRef{Name: name}, s.decl())
}

func (s *Scope) decl() *syntax.TypeDecl {
	if s.Type == nil || len(s.Type.decls) == 0 {
		return nil
	}
	return s.Type.decls[0]
}

// BindInvocation returns the method an invocation calls when its target is
// a simple name, a member of this or base, or a static member of a type.
// Overloads are chosen by argument count.
func (c *Compilation) BindInvocation(inv *syntax.Invocation, s *Scope) *Method {
	if inv == nil || s == nil {
		return nil
	}
	var start *Type
	var name string
	switch fun := syntax.Unparen(inv.Fun).(type) {
	case *syntax.Ident:
		start, name = s.Type, fun.Name
	case *syntax.MemberAccess:
		name = fun.Name
		switch x := syntax.Unparen(fun.X).(type) {
		case *syntax.This:
			start = s.Type
		case *syntax.Base:
			if s.Type != nil {
				start = s.Type.base
			}
		default:
			t, ok := c.BindExpr(x, s).(*Type)
			if !ok {
				return nil
			}
			start = t
		}
	default:
		return nil
	}
	if start == nil {
		return nil
	}
	if m := applicable(start, name, len(inv.Args)); m != nil {
		return m
	}
	for b := range start.BaseTypes() {
		if m := applicable(b, name, len(inv.Args)); m != nil {
			return m
		}
	}
	return nil
}

func applicable(t *Type, name string, nargs int) *Method {
	for _, m := range t.MethodsNamed(name) {
		required := 0
		for _, p := range m.params {
			if !p.Optional() {
				required++
			}
		}
		if nargs >= required && nargs <= len(m.params) {
			return m
		}
	}
	return nil
}
