package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/notifyguard/internal/parse"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/query"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

func compile(t *testing.T, src string) (*symbols.Compilation, *syntax.File) {
	t.Helper()
	p, err := parse.New()
	require.NoError(t, err)
	f, err := p.Parse(context.Background(), []byte(src), "test.cs")
	require.NoError(t, err)
	return symbols.Bind([]*syntax.File{f}, qualname.DefaultNames().Metadata()...), f
}

const sample = `
class Vm
{
    private static int count;
    private string name;
    private string other;
    private Vm next;

    public string Name
    {
        get { return this.name; }
        set
        {
            if (value == name) return;
            name = value;
        }
    }

    public string Other => other;

    void Raise() => Notify("x");
    void Notify(string n) { }
}`

func TestSingleVariable(t *testing.T) {
	t.Parallel()
	_, f := compile(t, `class C { int a, b; int c; }`)
	fields := f.Types[0].Fields
	require.Len(t, fields, 2)

	assert.PanicsWithError(t, "invariant violated in SingleVariable: field declaration has 2 variables, want 1", func() {
		query.SingleVariable(fields[0])
	})
	assert.Equal(t, "c", query.SingleVariable(fields[1]).Name)

	var ie *query.InvariantError
	func() {
		defer func() { ie, _ = recover().(*query.InvariantError) }()
		query.SingleVariable(nil)
	}()
	require.NotNil(t, ie)
	assert.Equal(t, "SingleVariable", ie.Op)
}

func TestSingleExpression(t *testing.T) {
	t.Parallel()
	_, f := compile(t, sample)
	td := f.Types[0]

	name := td.Properties[0]
	e := query.SingleExpression(name.Get.Body)
	require.NotNil(t, e)
	ma, ok := e.(*syntax.MemberAccess)
	require.True(t, ok)
	assert.Equal(t, "name", ma.Name)

	other := td.Properties[1]
	id, ok := query.SingleExpression(other.Get.Body).(*syntax.Ident)
	require.True(t, ok)
	assert.Equal(t, "other", id.Name)

	_, ok = query.SingleExpression(td.Methods[0].Body).(*syntax.Invocation)
	assert.True(t, ok)
	assert.Nil(t, query.SingleExpression(td.Methods[1].Body), "empty block")
	assert.Nil(t, query.SingleExpression(name.Set.Body), "two statements")
	assert.Nil(t, query.SingleExpression(syntax.Body{}))
}

func TestStatementsAndEarlyReturn(t *testing.T) {
	t.Parallel()
	_, f := compile(t, sample)
	set := f.Types[0].Properties[0].Set

	stmts := query.Flatten(query.Statements(set.Body))
	require.Len(t, stmts, 2)
	iff, ok := stmts[0].(*syntax.If)
	require.True(t, ok)
	assert.True(t, query.IsEarlyReturnIf(iff))

	_, f = compile(t, `class C { int x; void M(int v) { if (v == x) { return; } if (v != x) { x = v; } if (v > 0) return; else x = 1; } }`)
	stmts = query.Statements(f.Types[0].Methods[0].Body)
	require.Len(t, stmts, 3)
	assert.True(t, query.IsEarlyReturnIf(stmts[0].(*syntax.If)))
	assert.False(t, query.IsEarlyReturnIf(stmts[1].(*syntax.If)))
	assert.False(t, query.IsEarlyReturnIf(stmts[2].(*syntax.If)), "else branch")
	assert.False(t, query.IsEarlyReturnIf(nil))

	_, f = compile(t, `class C { void M() => N(); void N() { } }`)
	single := query.Statements(f.Types[0].Methods[0].Body)
	require.Len(t, single, 1)
	_, ok = single[0].(*syntax.ExprStmt)
	assert.True(t, ok)
}

func TestConstantName(t *testing.T) {
	t.Parallel()
	_, f := compile(t, `class C {
    void M() {
        N("Name");
        N(nameof(Name));
        N(nameof(this.Other));
        N(name);
        N(null);
    }
}`)
	stmts := query.Statements(f.Types[0].Methods[0].Body)
	require.Len(t, stmts, 5)
	arg := func(i int) syntax.Expr {
		return stmts[i].(*syntax.ExprStmt).X.(*syntax.Invocation).Args[0].Value
	}
	tests := []struct {
		i    int
		want string
		ok   bool
	}{
		{0, "Name", true},
		{1, "Name", true},
		{2, "Other", true},
		{3, "", false},
		{4, "", false},
	}
	for _, tt := range tests {
		got, ok := query.ConstantName(arg(tt.i))
		assert.Equal(t, tt.ok, ok, "arg %d", tt.i)
		assert.Equal(t, tt.want, got, "arg %d", tt.i)
	}
	assert.True(t, query.IsNameOf(arg(1)))
	assert.False(t, query.IsNameOf(arg(0)))
	assert.True(t, query.IsNullLiteral(arg(4)))
	assert.Equal(t, "N", query.CalledName(stmts[0].(*syntax.ExprStmt).X.(*syntax.Invocation)))
}

func TestInstanceField(t *testing.T) {
	t.Parallel()
	c, f := compile(t, `
class Vm
{
    private static int count;
    private int n;
    private Vm next;
    public int N
    {
        get => n;
        set
        {
            n = value;
            this.n = value;
            count = value;
            next.n = value;
            N = value;
        }
    }
}`)
	vm := c.TypeOf(f.Types[0])
	require.NotNil(t, vm)
	p := vm.PropertyNamed("N")
	require.NotNil(t, p)
	s := c.PropertyScope(p, p.Setter())

	stmts := query.Statements(p.Setter().Body)
	require.Len(t, stmts, 5)
	left := func(i int) syntax.Expr { return stmts[i].(*syntax.ExprStmt).X.(*syntax.Assign).Left }
	right := func(i int) syntax.Expr { return stmts[i].(*syntax.ExprStmt).X.(*syntax.Assign).Right }

	n := vm.FieldNamed("n")
	assert.Same(t, n, query.InstanceField(c, s, left(0)))
	assert.Same(t, n, query.InstanceField(c, s, left(1)))
	assert.Nil(t, query.InstanceField(c, s, left(2)), "static field")
	assert.Nil(t, query.InstanceField(c, s, left(3)), "other instance")
	assert.Nil(t, query.InstanceField(c, s, left(4)), "property")

	assert.True(t, query.IsValueParameter(c, s, right(0)))
	assert.False(t, query.IsValueParameter(c, s, left(0)))
	assert.True(t, query.SameSymbol(c, s, left(0), left(1)))
	assert.False(t, query.SameSymbol(c, s, left(0), left(2)))

	get := c.PropertyScope(p, p.Getter())
	assert.False(t, query.IsValueParameter(c, get, right(0)), "value is only bound in setters")
}

func TestIsImplicitReceiver(t *testing.T) {
	t.Parallel()
	assert.True(t, query.IsImplicitReceiver(nil))
	assert.True(t, query.IsImplicitReceiver(&syntax.This{}))
	assert.True(t, query.IsImplicitReceiver(&syntax.Paren{X: &syntax.This{}}))
	assert.False(t, query.IsImplicitReceiver(&syntax.Base{}))
	assert.False(t, query.IsImplicitReceiver(&syntax.Ident{Name: "other"}))
}

func TestInvariantErrorMessage(t *testing.T) {
	t.Parallel()
	err := &query.InvariantError{Op: "Op", Msg: "broken"}
	assert.EqualError(t, err, "invariant violated in Op: broken")
}
