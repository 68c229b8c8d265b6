// Package syntax defines a normalized, read-only view of C# declarations,
// statements and expressions.
//
// The view is produced by the parse package from a tree-sitter tree and is
// what the analysis components walk. Shapes the analyzers do not model are
// kept as Unknown nodes so that partially-written code degrades to
// "indeterminate" instead of failing.
package syntax

// Span is a half-open byte range [Start, End) into the file source.
type Span struct {
	Start int
	End   int
}

// Node is implemented by every syntax element.
type Node interface {
	Pos() Span
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// RefKind is the argument or parameter passing mode.
type RefKind uint8

const (
	ByValue RefKind = iota
	ByRef
	ByOut
	ByIn
)

// LitKind classifies literals.
type LitKind uint8

const (
	OtherLit LitKind = iota
	StringLit
	NullLit
	BoolLit
	NumberLit
)

type (
	// Ident is a bare identifier such as `name` or `value`.
	Ident struct {
		Name string
		Span Span
	}

	// This is the `this` keyword.
	This struct{ Span Span }

	// Base is the `base` keyword.
	Base struct{ Span Span }

	// MemberAccess is `X.Name`, or `X?.Name` when Conditional is set.
	MemberAccess struct {
		X           Expr
		Name        string
		TypeArgs    []*TypeRef
		Conditional bool
		NameSpan    Span
		Span        Span
	}

	// Invocation is `Fun(Args)`.
	Invocation struct {
		Fun  Expr
		Args []*Arg
		// ArgsSpan covers the parenthesized argument list.
		ArgsSpan Span
		Span     Span
	}

	// Arg is a single call argument.
	Arg struct {
		Name  string
		Ref   RefKind
		Value Expr
		Span  Span
	}

	// Binary is `Left Op Right`.
	Binary struct {
		Op    string
		Left  Expr
		Right Expr
		Span  Span
	}

	// Unary is a prefix operator applied to X.
	Unary struct {
		Op   string
		X    Expr
		Span Span
	}

	// Paren is a parenthesized expression.
	Paren struct {
		X    Expr
		Span Span
	}

	// Assign is `Left Op Right` for `=` and the compound assignment operators.
	Assign struct {
		Op    string
		Left  Expr
		Right Expr
		Span  Span
	}

	// Literal is a constant. Value holds the unquoted text of string literals.
	Literal struct {
		Kind  LitKind
		Text  string
		Value string
		Span  Span
	}

	// NewObject is an object creation expression `new T(Args)`.
	NewObject struct {
		Type *TypeRef
		Args []*Arg
		Span Span
	}

	// TypeExpr is a type used in expression position, e.g. `string` in
	// `string.Equals(a, b)` or `EqualityComparer<T>` in `EqualityComparer<T>.Default`.
	TypeExpr struct {
		Type *TypeRef
		Span Span
	}

	// UnknownExpr is any expression shape the analyzers do not model.
	UnknownExpr struct {
		Kind string
		Text string
		Span Span
	}
)

func (e *Ident) Pos() Span        { return e.Span }
func (e *This) Pos() Span         { return e.Span }
func (e *Base) Pos() Span         { return e.Span }
func (e *MemberAccess) Pos() Span { return e.Span }
func (e *Invocation) Pos() Span   { return e.Span }
func (e *Arg) Pos() Span          { return e.Span }
func (e *Binary) Pos() Span       { return e.Span }
func (e *Unary) Pos() Span        { return e.Span }
func (e *Paren) Pos() Span        { return e.Span }
func (e *Assign) Pos() Span       { return e.Span }
func (e *Literal) Pos() Span      { return e.Span }
func (e *NewObject) Pos() Span    { return e.Span }
func (e *TypeExpr) Pos() Span     { return e.Span }
func (e *UnknownExpr) Pos() Span  { return e.Span }

func (*Ident) exprNode()        {}
func (*This) exprNode()         {}
func (*Base) exprNode()         {}
func (*MemberAccess) exprNode() {}
func (*Invocation) exprNode()   {}
func (*Binary) exprNode()       {}
func (*Unary) exprNode()        {}
func (*Paren) exprNode()        {}
func (*Assign) exprNode()       {}
func (*Literal) exprNode()      {}
func (*NewObject) exprNode()    {}
func (*TypeExpr) exprNode()     {}
func (*UnknownExpr) exprNode()  {}

type (
	// Block is `{ Stmts }`.
	Block struct {
		Stmts []Stmt
		Span  Span
	}

	// ExprStmt is an expression followed by `;`.
	ExprStmt struct {
		X    Expr
		Span Span
	}

	// Return is `return X;`. X is nil for a bare return.
	Return struct {
		X    Expr
		Span Span
	}

	// If is `if (Cond) Then else Else`. Else may be nil.
	If struct {
		Cond Expr
		Then Stmt
		Else Stmt
		Span Span
	}

	// LocalDecl declares a single local variable. Multi-variable declarations
	// are lowered to one LocalDecl per variable.
	LocalDecl struct {
		Name string
		Type *TypeRef
		Init Expr
		Span Span
	}

	// Throw is `throw X;`.
	Throw struct {
		X    Expr
		Span Span
	}

	// Empty is a lone `;`.
	Empty struct{ Span Span }

	// UnknownStmt is any statement shape the analyzers do not model.
	UnknownStmt struct {
		Kind string
		Span Span
	}
)

func (s *Block) Pos() Span       { return s.Span }
func (s *ExprStmt) Pos() Span    { return s.Span }
func (s *Return) Pos() Span      { return s.Span }
func (s *If) Pos() Span          { return s.Span }
func (s *LocalDecl) Pos() Span   { return s.Span }
func (s *Throw) Pos() Span       { return s.Span }
func (s *Empty) Pos() Span       { return s.Span }
func (s *UnknownStmt) Pos() Span { return s.Span }

func (*Block) stmtNode()       {}
func (*ExprStmt) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*If) stmtNode()          {}
func (*LocalDecl) stmtNode()   {}
func (*Throw) stmtNode()       {}
func (*Empty) stmtNode()       {}
func (*UnknownStmt) stmtNode() {}

// Body is a member body: either a block or an expression (`=> expr`).
// Both are nil for abstract, extern, interface and auto members.
type Body struct {
	Block *Block
	Expr  Expr
}

// Empty reports whether the body has neither a block nor an expression.
func (b Body) Empty() bool { return b.Block == nil && b.Expr == nil }
