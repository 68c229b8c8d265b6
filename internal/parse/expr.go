package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/notifyguard/internal/lang"
	"github.com/phobologic/notifyguard/internal/syntax"
)

func (l *lowerer) block(n *sitter.Node) *syntax.Block {
	b := &syntax.Block{Span: span(n)}
	for _, c := range lang.NamedChildren(n) {
		b.Stmts = append(b.Stmts, l.stmts(c)...)
	}
	return b
}

// stmt lowers a statement in a position that admits exactly one, wrapping
// multi-variable local declarations in a block.
func (l *lowerer) stmt(n *sitter.Node) syntax.Stmt {
	if n == nil {
		return nil
	}
	ss := l.stmts(n)
	if len(ss) == 1 {
		return ss[0]
	}
	return &syntax.Block{Stmts: ss, Span: span(n)}
}

func (l *lowerer) stmts(n *sitter.Node) []syntax.Stmt {
	sp := span(n)
	switch n.Type() {
	case "block":
		return []syntax.Stmt{l.block(n)}
	case "expression_statement":
		var x syntax.Expr
		if ns := lang.NamedChildren(n); len(ns) > 0 {
			x = l.expr(ns[0])
		}
		return []syntax.Stmt{&syntax.ExprStmt{X: x, Span: sp}}
	case "return_statement":
		r := &syntax.Return{Span: sp}
		if ns := lang.NamedChildren(n); len(ns) > 0 {
			r.X = l.expr(ns[0])
		}
		return []syntax.Stmt{r}
	case "throw_statement":
		t := &syntax.Throw{Span: sp}
		if ns := lang.NamedChildren(n); len(ns) > 0 {
			t.X = l.expr(ns[0])
		}
		return []syntax.Stmt{t}
	case "empty_statement":
		return []syntax.Stmt{&syntax.Empty{Span: sp}}
	case "if_statement":
		return []syntax.Stmt{l.ifStmt(n)}
	case "local_declaration_statement":
		typ, vars := l.declarators(n)
		if len(vars) == 0 {
			return []syntax.Stmt{&syntax.UnknownStmt{Kind: n.Type(), Span: sp}}
		}
		out := make([]syntax.Stmt, 0, len(vars))
		for _, v := range vars {
			out = append(out, &syntax.LocalDecl{Name: v.Name, Type: typ, Init: v.Init, Span: sp})
		}
		return out
	}
	return []syntax.Stmt{&syntax.UnknownStmt{Kind: n.Type(), Span: sp}}
}

func (l *lowerer) ifStmt(n *sitter.Node) *syntax.If {
	s := &syntax.If{Span: span(n)}
	cond := lang.Field(n, "condition")
	then := lang.Field(n, "consequence")
	alt := lang.Field(n, "alternative")
	if cond == nil || then == nil {
		ns := lang.NamedChildren(n)
		if len(ns) < 2 {
			s.Cond = &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: s.Span}
			return s
		}
		cond, then = ns[0], ns[1]
		if len(ns) > 2 {
			alt = ns[2]
		}
	}
	s.Cond = l.expr(cond)
	s.Then = l.stmt(then)
	if alt != nil {
		if alt.Type() == "else_clause" {
			if ns := lang.NamedChildren(alt); len(ns) > 0 {
				alt = ns[0]
			}
		}
		s.Else = l.stmt(alt)
	}
	return s
}

func (l *lowerer) expr(n *sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	sp := span(n)
	switch n.Type() {
	case "identifier":
		return &syntax.Ident{Name: l.text(n), Span: sp}
	case "this_expression", "this":
		return &syntax.This{Span: sp}
	case "base_expression", "base":
		return &syntax.Base{Span: sp}
	case "parenthesized_expression":
		if ns := lang.NamedChildren(n); len(ns) > 0 {
			return &syntax.Paren{X: l.expr(ns[0]), Span: sp}
		}
	case "member_access_expression":
		return l.memberAccess(n)
	case "member_binding_expression":
		return l.memberBinding(n)
	case "conditional_access_expression":
		return l.conditionalAccess(n)
	case "invocation_expression":
		return l.invocation(n)
	case "binary_expression":
		return l.binary(n)
	case "prefix_unary_expression":
		ns := lang.NamedChildren(n)
		if len(ns) > 0 && n.ChildCount() > 0 {
			return &syntax.Unary{Op: l.text(n.Child(0)), X: l.expr(ns[len(ns)-1]), Span: sp}
		}
	case "postfix_unary_expression":
		// `x!` only asserts non-null; `x++` and `x--` are kept opaque.
		if op := n.Child(int(n.ChildCount()) - 1); op != nil && op.Type() == "!" {
			if ns := lang.NamedChildren(n); len(ns) > 0 {
				return l.expr(ns[0])
			}
		}
	case "assignment_expression":
		return l.assignment(n)
	case "string_literal", "verbatim_string_literal", "raw_string_literal":
		return &syntax.Literal{Kind: syntax.StringLit, Text: l.text(n), Value: unquote(l.text(n)), Span: sp}
	case "null_literal":
		return &syntax.Literal{Kind: syntax.NullLit, Text: l.text(n), Span: sp}
	case "boolean_literal":
		return &syntax.Literal{Kind: syntax.BoolLit, Text: l.text(n), Value: l.text(n), Span: sp}
	case "integer_literal", "real_literal":
		return &syntax.Literal{Kind: syntax.NumberLit, Text: l.text(n), Value: l.text(n), Span: sp}
	case "character_literal":
		return &syntax.Literal{Kind: syntax.OtherLit, Text: l.text(n), Span: sp}
	case "object_creation_expression":
		o := &syntax.NewObject{Span: sp}
		if t := lang.Field(n, "type"); t != nil {
			o.Type = l.typeRef(t)
		}
		o.Args = l.args(lang.Field(n, "arguments"))
		if o.Args == nil {
			o.Args = l.args(lang.ChildOfType(n, "argument_list"))
		}
		return o
	case "predefined_type", "generic_name", "qualified_name", "nullable_type", "alias_qualified_name":
		return &syntax.TypeExpr{Type: l.typeRef(n), Span: sp}
	}
	return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: sp}
}

func (l *lowerer) memberAccess(n *sitter.Node) syntax.Expr {
	m := &syntax.MemberAccess{Span: span(n)}
	x := lang.Field(n, "expression")
	name := lang.Field(n, "name")
	if x == nil || name == nil {
		ns := lang.NamedChildren(n)
		if len(ns) < 2 {
			return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: m.Span}
		}
		x, name = ns[0], ns[len(ns)-1]
	}
	m.X = l.expr(x)
	l.memberName(m, name)
	return m
}

func (l *lowerer) memberName(m *syntax.MemberAccess, name *sitter.Node) {
	m.NameSpan = span(name)
	if name.Type() == "generic_name" {
		ref := l.typeRef(name)
		m.Name = ref.Name
		m.TypeArgs = ref.Args
		if id := lang.ChildOfType(name, "identifier"); id != nil {
			m.NameSpan = span(id)
		}
		return
	}
	m.Name = l.text(name)
}

func (l *lowerer) memberBinding(n *sitter.Node) syntax.Expr {
	m := &syntax.MemberAccess{X: l.receiver, Conditional: true, Span: span(n)}
	name := lang.Field(n, "name")
	if name == nil {
		ns := lang.NamedChildren(n)
		if len(ns) == 0 {
			return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: m.Span}
		}
		name = ns[len(ns)-1]
	}
	l.memberName(m, name)
	return m
}

// conditionalAccess lowers `a?.b.c()` by lowering the bound tail with `a`
// as the receiver of its leading member binding.
func (l *lowerer) conditionalAccess(n *sitter.Node) syntax.Expr {
	ns := lang.NamedChildren(n)
	cond := lang.Field(n, "condition")
	if cond == nil && len(ns) > 0 {
		cond = ns[0]
	}
	if cond == nil || len(ns) < 2 {
		return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: span(n)}
	}
	saved := l.receiver
	l.receiver = l.expr(cond)
	out := l.expr(ns[len(ns)-1])
	l.receiver = saved
	if m, ok := out.(*syntax.MemberAccess); ok {
		m.Span = span(n)
	}
	if inv, ok := out.(*syntax.Invocation); ok {
		inv.Span = span(n)
	}
	return out
}

func (l *lowerer) invocation(n *sitter.Node) syntax.Expr {
	inv := &syntax.Invocation{Span: span(n)}
	fun := lang.Field(n, "function")
	if fun == nil {
		if ns := lang.NamedChildren(n); len(ns) > 0 {
			fun = ns[0]
		}
	}
	inv.Fun = l.expr(fun)
	args := lang.Field(n, "arguments")
	if args == nil {
		args = lang.ChildOfType(n, "argument_list")
	}
	inv.ArgsSpan = span(args)
	inv.Args = l.args(args)
	return inv
}

func (l *lowerer) args(list *sitter.Node) []*syntax.Arg {
	if list == nil {
		return nil
	}
	out := []*syntax.Arg{}
	for _, a := range lang.ChildrenOfType(list, "argument") {
		arg := &syntax.Arg{Span: span(a)}
		var value *sitter.Node
		for i := 0; i < int(a.ChildCount()); i++ {
			c := a.Child(i)
			switch c.Type() {
			case "name_colon":
				if id := lang.ChildOfType(c, "identifier"); id != nil {
					arg.Name = l.text(id)
				} else {
					arg.Name = strings.TrimSpace(strings.TrimSuffix(l.text(c), ":"))
				}
			case "ref", "out", "in":
				arg.Ref, _ = refKind(c.Type())
			case "this", "base":
				// Some grammar versions surface these as anonymous keywords.
				value = c
			default:
				if c.IsNamed() && !lang.IsTrivia(c) {
					value = c
				}
			}
		}
		arg.Value = l.expr(value)
		if arg.Value == nil {
			arg.Value = &syntax.UnknownExpr{Kind: a.Type(), Text: l.text(a), Span: arg.Span}
		}
		out = append(out, arg)
	}
	return out
}

func (l *lowerer) binary(n *sitter.Node) syntax.Expr {
	b := &syntax.Binary{Span: span(n)}
	left, op, right := lang.Field(n, "left"), lang.Field(n, "operator"), lang.Field(n, "right")
	if left == nil || right == nil || op == nil {
		if n.ChildCount() != 3 {
			return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: b.Span}
		}
		left, op, right = n.Child(0), n.Child(1), n.Child(2)
	}
	b.Left, b.Op, b.Right = l.expr(left), l.text(op), l.expr(right)
	return b
}

func (l *lowerer) assignment(n *sitter.Node) syntax.Expr {
	a := &syntax.Assign{Span: span(n)}
	left, op, right := lang.Field(n, "left"), lang.Field(n, "operator"), lang.Field(n, "right")
	if left == nil || right == nil || op == nil {
		if n.ChildCount() != 3 {
			return &syntax.UnknownExpr{Kind: n.Type(), Text: l.text(n), Span: a.Span}
		}
		left, op, right = n.Child(0), n.Child(1), n.Child(2)
	}
	a.Left, a.Op, a.Right = l.expr(left), l.text(op), l.expr(right)
	return a
}

// unquote returns the content of a regular, verbatim or raw string literal.
// Escapes are left as written; property names never contain them.
func unquote(s string) string {
	s = strings.TrimLeft(s, "@$")
	i := strings.IndexByte(s, '"')
	j := strings.LastIndexByte(s, '"')
	if i < 0 || j <= i {
		return s
	}
	s = s[i : j+1]
	q := 0
	for q < len(s)/2 && s[q] == '"' && s[len(s)-1-q] == '"' {
		q++
	}
	return s[q : len(s)-q]
}

func (l *lowerer) typeRef(n *sitter.Node) *syntax.TypeRef {
	sp := span(n)
	switch n.Type() {
	case "predefined_type", "implicit_type":
		return &syntax.TypeRef{Name: l.text(n), Keyword: true, Span: sp}
	case "identifier":
		return &syntax.TypeRef{Name: l.text(n), Span: sp}
	case "generic_name":
		r := &syntax.TypeRef{Span: sp}
		if id := lang.ChildOfType(n, "identifier"); id != nil {
			r.Name = l.text(id)
		}
		for _, a := range lang.NamedChildren(lang.ChildOfType(n, "type_argument_list")) {
			r.Args = append(r.Args, l.typeRef(a))
		}
		return r
	case "qualified_name":
		q, name := lang.Field(n, "qualifier"), lang.Field(n, "name")
		ns := lang.NamedChildren(n)
		if (q == nil || name == nil) && len(ns) >= 2 {
			q, name = ns[0], ns[len(ns)-1]
		}
		if q == nil || name == nil {
			break
		}
		r := l.typeRef(name)
		qual := l.typeRef(q)
		r.Alias = qual.Alias
		r.Qualifier = append(append(append([]string(nil), qual.Qualifier...), qual.Name), r.Qualifier...)
		r.Span = sp
		return r
	case "alias_qualified_name":
		alias, name := lang.Field(n, "alias"), lang.Field(n, "name")
		ns := lang.NamedChildren(n)
		if (alias == nil || name == nil) && len(ns) >= 2 {
			alias, name = ns[0], ns[len(ns)-1]
		}
		if alias == nil || name == nil {
			break
		}
		r := l.typeRef(name)
		r.Alias = l.text(alias)
		r.Span = sp
		return r
	case "nullable_type", "array_type":
		inner := lang.Field(n, "type")
		if inner == nil {
			if ns := lang.NamedChildren(n); len(ns) > 0 {
				inner = ns[0]
			}
		}
		if inner == nil {
			break
		}
		r := l.typeRef(inner)
		if n.Type() == "nullable_type" {
			r.Nullable = true
		} else {
			r.Array = true
		}
		r.Span = sp
		return r
	case "type":
		if ns := lang.NamedChildren(n); len(ns) == 1 {
			return l.typeRef(ns[0])
		}
	}
	return &syntax.TypeRef{Name: lang.CollapseWhitespace(l.text(n)), Span: sp}
}
