package mutation

import (
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// Comparison is the way a guard compares two values.
type Comparison uint8

const (
	CompareUnknown Comparison = iota
	// CompareOperator is `a == b` or `a != b`.
	CompareOperator
	// CompareInstanceEquals is `a.Equals(b)`.
	CompareInstanceEquals
	// CompareObjectEquals is `Equals(a, b)` or `object.Equals(a, b)`.
	CompareObjectEquals
	// CompareReferenceEquals is `ReferenceEquals(a, b)`.
	CompareReferenceEquals
	// CompareComparer is `EqualityComparer<T>.Default.Equals(a, b)`.
	CompareComparer
	// CompareStringEquals is `string.Equals(a, b, ...)`.
	CompareStringEquals
	// CompareNullableEquals is `Nullable.Equals(a, b)`.
	CompareNullableEquals
)

var comparisonNames = [...]string{
	CompareUnknown:         "unknown",
	CompareOperator:        "operator",
	CompareInstanceEquals:  "instance Equals",
	CompareObjectEquals:    "object.Equals",
	CompareReferenceEquals: "ReferenceEquals",
	CompareComparer:        "EqualityComparer",
	CompareStringEquals:    "string.Equals",
	CompareNullableEquals:  "Nullable.Equals",
}

func (c Comparison) String() string {
	if int(c) < len(comparisonNames) {
		return comparisonNames[c]
	}
	return comparisonNames[CompareUnknown]
}

// equality is a recognized comparison of two operands.
type equality struct {
	kind Comparison
	// node is the comparison itself and outer the comparison with any
	// enclosing negations and parentheses.
	node  syntax.Expr
	outer syntax.Expr
	left  syntax.Expr
	right syntax.Expr
	// negated is set when the expression is true for different values.
	negated bool
}

// recognizeEquality matches the equality idioms a setter guard uses.
func recognizeEquality(c *symbols.Compilation, s *symbols.Scope, e syntax.Expr) (equality, bool) {
	outer := e
	negated := false
	for {
		switch x := e.(type) {
		case *syntax.Paren:
			e = x.X
			continue
		case *syntax.Unary:
			if x.Op == "!" {
				negated = !negated
				e = x.X
				continue
			}
		}
		break
	}

	eq := equality{node: e, outer: outer, negated: negated}
	switch x := e.(type) {
	case *syntax.Binary:
		switch x.Op {
		case "==":
		case "!=":
			eq.negated = !eq.negated
		default:
			return equality{}, false
		}
		eq.kind, eq.left, eq.right = CompareOperator, x.Left, x.Right
		return eq, true
	case *syntax.Invocation:
		kind, left, right, ok := recognizeCall(c, s, x)
		if !ok {
			return equality{}, false
		}
		eq.kind, eq.left, eq.right = kind, left, right
		return eq, true
	}
	return equality{}, false
}

func recognizeCall(c *symbols.Compilation, s *symbols.Scope, inv *syntax.Invocation) (Comparison, syntax.Expr, syntax.Expr, bool) {
	args := inv.Args
	switch fun := syntax.Unparen(inv.Fun).(type) {
	case *syntax.Ident:
		switch {
		case fun.Name == "Equals" && len(args) == 2:
			return CompareObjectEquals, args[0].Value, args[1].Value, true
		case fun.Name == "ReferenceEquals" && len(args) == 2:
			return CompareReferenceEquals, args[0].Value, args[1].Value, true
		}
	case *syntax.MemberAccess:
		if fun.Conditional {
			return CompareUnknown, nil, nil, false
		}
		switch fun.Name {
		case "ReferenceEquals":
			if len(args) == 2 && staticReceiver(c, s, fun.X) == "Object" {
				return CompareReferenceEquals, args[0].Value, args[1].Value, true
			}
		case "Equals":
			if d, ok := syntax.Unparen(fun.X).(*syntax.MemberAccess); ok && d.Name == "Default" &&
				staticReceiver(c, s, d.X) == "EqualityComparer" && len(args) == 2 {
				return CompareComparer, args[0].Value, args[1].Value, true
			}
			switch staticReceiver(c, s, fun.X) {
			case "Object":
				if len(args) == 2 {
					return CompareObjectEquals, args[0].Value, args[1].Value, true
				}
			case "String":
				if len(args) >= 2 {
					return CompareStringEquals, args[0].Value, args[1].Value, true
				}
			case "Nullable":
				if len(args) == 2 {
					return CompareNullableEquals, args[0].Value, args[1].Value, true
				}
			case "":
				if len(args) == 1 && args[0].Name == "" {
					return CompareInstanceEquals, fun.X, args[0].Value, true
				}
			}
		}
	}
	return CompareUnknown, nil, nil, false
}

// staticReceiver returns the simple type name when x denotes a type, e.g.
// "Object" for `object` and `System.Object`, and "" otherwise.
func staticReceiver(c *symbols.Compilation, s *symbols.Scope, x syntax.Expr) string {
	switch x := syntax.Unparen(x).(type) {
	case *syntax.TypeExpr:
		return typeRefName(x.Type)
	case *syntax.Ident:
		switch sym := c.BindExpr(x, s).(type) {
		case *symbols.Type:
			return sym.Name()
		case nil:
			if isWellKnownStatic(x.Name) {
				return x.Name
			}
		}
	case *syntax.MemberAccess:
		if t, ok := c.BindExpr(x, s).(*symbols.Type); ok {
			return t.Name()
		}
		if onlyNames(x.X) && isWellKnownStatic(x.Name) {
			return x.Name
		}
	}
	return ""
}

func typeRefName(ref *syntax.TypeRef) string {
	if ref == nil {
		return ""
	}
	if ref.Keyword {
		q := symbols.KeywordType(ref.Name)
		if i := lastDot(q); i >= 0 {
			return q[i+1:]
		}
		return q
	}
	return ref.Name
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func isWellKnownStatic(name string) bool {
	switch name {
	case "Object", "String", "Nullable", "EqualityComparer":
		return true
	}
	return false
}

func onlyNames(e syntax.Expr) bool {
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Ident:
		return true
	case *syntax.MemberAccess:
		return !e.Conditional && onlyNames(e.X)
	}
	return false
}
