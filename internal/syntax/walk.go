package syntax

// Inspect traverses the statement or expression tree rooted at n in source
// order, calling f for each node. If f returns false the children of that
// node are skipped. Nil nodes are ignored.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *Return:
		Inspect(n.X, f)
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *LocalDecl:
		Inspect(n.Init, f)
	case *Throw:
		Inspect(n.X, f)
	case *MemberAccess:
		Inspect(n.X, f)
	case *Invocation:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Arg:
		Inspect(n.Value, f)
	case *Binary:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Unary:
		Inspect(n.X, f)
	case *Paren:
		Inspect(n.X, f)
	case *Assign:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *NewObject:
		for _, a := range n.Args {
			Inspect(a, f)
		}
	}
}

// InspectBody traverses a member body.
func InspectBody(b Body, f func(Node) bool) {
	if b.Block != nil {
		Inspect(b.Block, f)
	}
	if b.Expr != nil {
		Inspect(b.Expr, f)
	}
}

// isNil catches both untyped nil and typed nil pointers stored in the
// Node interface, which the lowering produces for absent optional children.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *ExprStmt:
		return n == nil
	case *Return:
		return n == nil
	case *If:
		return n == nil
	case *Arg:
		return n == nil
	case *Invocation:
		return n == nil
	case *MemberAccess:
		return n == nil
	case *Ident:
		return n == nil
	}
	return false
}

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}
