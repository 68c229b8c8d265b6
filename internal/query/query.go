// Package query holds small predicates over declarations and member bodies
// shared by the analyzers.
package query

import (
	"fmt"

	"github.com/phobologic/notifyguard/internal/comparers"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// InvariantError reports input that an upstream layer promised never to
// produce. Functions in this package panic with *InvariantError; the
// analyzer recovers it per type and reports an internal error.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Msg)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// SingleVariable returns the only declarator of a field declaration. Callers
// must only pass declarations already known to declare exactly one variable.
func SingleVariable(f *syntax.Field) *syntax.VarDecl {
	if f == nil || len(f.Vars) != 1 {
		n := 0
		if f != nil {
			n = len(f.Vars)
		}
		invariant("SingleVariable", "field declaration has %d variables, want 1", n)
	}
	return f.Vars[0]
}

// Statements returns the body as a statement list. An expression body is
// returned as a single expression statement.
func Statements(b syntax.Body) []syntax.Stmt {
	switch {
	case b.Block != nil:
		return b.Block.Stmts
	case b.Expr != nil:
		return []syntax.Stmt{&syntax.ExprStmt{X: b.Expr, Span: b.Expr.Pos()}}
	}
	return nil
}

// SingleExpression normalizes `=> e`, `{ e; }` and `{ return e; }` to e.
// It returns nil for any other body.
func SingleExpression(b syntax.Body) syntax.Expr {
	if b.Expr != nil {
		return b.Expr
	}
	if b.Block == nil || len(b.Block.Stmts) != 1 {
		return nil
	}
	switch s := b.Block.Stmts[0].(type) {
	case *syntax.ExprStmt:
		return s.X
	case *syntax.Return:
		return s.X
	}
	return nil
}

// Flatten returns the statements of s with nested blocks inlined.
func Flatten(stmts []syntax.Stmt) []syntax.Stmt {
	var out []syntax.Stmt
	for _, s := range stmts {
		if b, ok := s.(*syntax.Block); ok {
			out = append(out, Flatten(b.Stmts)...)
			continue
		}
		if _, ok := s.(*syntax.Empty); ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsEarlyReturnIf reports whether the only effect of s is a bare return:
// `if (c) return;` or `if (c) { return; }` without an else branch.
func IsEarlyReturnIf(s *syntax.If) bool {
	if s == nil || s.Else != nil {
		return false
	}
	return isBareReturn(s.Then)
}

func isBareReturn(s syntax.Stmt) bool {
	switch s := s.(type) {
	case *syntax.Return:
		return s.X == nil
	case *syntax.Block:
		flat := Flatten(s.Stmts)
		return len(flat) == 1 && isBareReturn(flat[0])
	}
	return false
}

// CalledName returns the simple name of the invoked member:
// `M` for `M(...)`, `x.M(...)` and `x?.M(...)`.
func CalledName(inv *syntax.Invocation) string {
	if inv == nil {
		return ""
	}
	switch f := syntax.Unparen(inv.Fun).(type) {
	case *syntax.Ident:
		return f.Name
	case *syntax.MemberAccess:
		return f.Name
	}
	return ""
}

// IsNameOf reports whether e is a `nameof(...)` expression.
func IsNameOf(e syntax.Expr) bool {
	inv, ok := syntax.Unparen(e).(*syntax.Invocation)
	if !ok || len(inv.Args) != 1 {
		return false
	}
	id, ok := inv.Fun.(*syntax.Ident)
	return ok && id.Name == "nameof"
}

// ConstantName returns the property name denoted by a string literal or a
// nameof expression. For nameof the last identifier is used.
func ConstantName(e syntax.Expr) (string, bool) {
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Literal:
		if e.Kind == syntax.StringLit {
			return e.Value, true
		}
	case *syntax.Invocation:
		if !IsNameOf(e) {
			return "", false
		}
		switch a := syntax.Unparen(e.Args[0].Value).(type) {
		case *syntax.Ident:
			return a.Name, true
		case *syntax.MemberAccess:
			return a.Name, true
		}
	}
	return "", false
}

// IsNullLiteral reports whether e is `null`.
func IsNullLiteral(e syntax.Expr) bool {
	l, ok := syntax.Unparen(e).(*syntax.Literal)
	return ok && l.Kind == syntax.NullLit
}

// IsImplicitReceiver reports whether a member access receiver refers to the
// current instance: `this`, or no receiver at all.
func IsImplicitReceiver(x syntax.Expr) bool {
	if x == nil {
		return true
	}
	_, ok := syntax.Unparen(x).(*syntax.This)
	return ok
}

// InstanceField returns the field that e reads or writes when e is `f` or
// `this.f` and f is an instance field of the scope type or its bases.
func InstanceField(c *symbols.Compilation, s *symbols.Scope, e syntax.Expr) *symbols.Field {
	switch x := syntax.Unparen(e).(type) {
	case *syntax.Ident:
	case *syntax.MemberAccess:
		if x.Conditional || !IsImplicitReceiver(x.X) {
			return nil
		}
	default:
		return nil
	}
	f, ok := c.BindExpr(e, s).(*symbols.Field)
	if !ok || f.IsStatic() {
		return nil
	}
	return f
}

// IsValueParameter reports whether e is the implicit setter parameter.
func IsValueParameter(c *symbols.Compilation, s *symbols.Scope, e syntax.Expr) bool {
	p, ok := c.BindExpr(e, s).(*symbols.Parameter)
	return ok && p.Implicit()
}

// SameSymbol reports whether a and b are bare or this-qualified references
// to the same member, local or parameter.
func SameSymbol(c *symbols.Compilation, s *symbols.Scope, a, b syntax.Expr) bool {
	sa, sb := c.BindExpr(a, s), c.BindExpr(b, s)
	return sa != nil && comparers.Equal(sa, sb)
}
