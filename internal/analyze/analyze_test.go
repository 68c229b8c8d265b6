package analyze_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis"

	"github.com/phobologic/notifyguard/internal/analyze"
	"github.com/phobologic/notifyguard/internal/parse"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/rules"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

type source struct{ path, text string }

func setup(t *testing.T, opts analyze.Options, srcs ...source) (*analyze.Analyzer, []*syntax.File) {
	t.Helper()
	p, err := parse.New()
	require.NoError(t, err)
	var files []*syntax.File
	for _, s := range srcs {
		f, err := p.Parse(context.Background(), []byte(s.text), s.path)
		require.NoError(t, err)
		files = append(files, f)
	}
	c := symbols.Bind(files, qualname.DefaultNames().Metadata()...)
	return analyze.New(c, opts), files
}

func analyzeOne(t *testing.T, src string) []analysis.Diagnostic {
	t.Helper()
	a, files := setup(t, analyze.Options{}, source{"Vm.cs", src})
	return a.File(context.Background(), files[0])
}

func ids(diags []analysis.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Category)
	}
	return out
}

const usings = `using System.ComponentModel;
using System.Runtime.CompilerServices;
`

const person = usings + `
public sealed class Person : INotifyPropertyChanged
{
    private string name;

    public event PropertyChangedEventHandler PropertyChanged;

    public string Name
    {
        get => this.%s;
        set
        {
            if (value == this.name) return;
            this.name = value;
            this.OnPropertyChanged();
        }
    }

    public string Other { get; private set; }

    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}`

const invoker = `
    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
`

func TestConformingPerson(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, fmt.Sprintf(person, "name"))
	assert.Empty(t, diags, "%v", ids(diags))
}

func TestDifferentFields(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, usings+`
public sealed class Person : INotifyPropertyChanged
{
    private string name;
    private string display;

    public event PropertyChangedEventHandler PropertyChanged;

    public string Name
    {
        get => this.display;
        set
        {
            this.name = value;
            this.OnPropertyChanged();
        }
    }

    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}`)
	// Only the mismatch itself: no guard, naming or ordering findings that
	// depend on a single backing field.
	require.Equal(t, []string{rules.GetAndSetDifferentFields}, ids(diags))
	assert.Len(t, diags[0].Related, 1)
	assert.Contains(t, diags[0].Message, "display")
}

func TestFindings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "auto property",
			body: `public string Name { get; set; }`,
			want: []string{rules.MutablePublicPropertyShouldNotify},
		},
		{
			name: "private setter",
			body: `public string Name { get; private set; }`,
		},
		{
			name: "no guard",
			body: `private string name;
    public string Name { get => name; set { name = value; OnPropertyChanged(); } }`,
			want: []string{rules.CheckIfDifferentBeforeNotifying},
		},
		{
			name: "no notification",
			body: `private string name;
    public string Name { get => name; set { if (value == name) return; name = value; } }`,
			want: []string{rules.MutablePublicPropertyShouldNotify},
		},
		{
			name: "notify before assign",
			body: `private string name;
    public string Name { get => name; set { if (value == name) return; OnPropertyChanged(); name = value; } }`,
			want: []string{rules.NotifyAfterAssign},
		},
		{
			name: "field name",
			body: `private string text;
    public string Name { get => text; set { if (value == text) return; text = value; OnPropertyChanged(); } }`,
			want: []string{rules.BackingFieldNameMustMatch},
		},
		{
			name: "missing assignment",
			body: `private string name;
    public string Name { get => name; set { OnPropertyChanged(); } }`,
			want: []string{rules.SetterShouldAssignField},
		},
		{
			name: "wrong guard field",
			body: `private string name;
    private string other;
    public string Name { get => name; set { if (value == other) return; name = value; OnPropertyChanged(); } }`,
			want: []string{rules.GuardComparesWrongField},
		},
		{
			name: "reference equals on int",
			body: `private int count;
    public int Count { get => count; set { if (ReferenceEquals(value, count)) return; count = value; OnPropertyChanged(); } }`,
			want: []string{rules.ReferenceEqualsIsAlwaysFalse},
		},
		{
			name: "instance equals",
			body: `private object tag;
    public object Tag { get => tag; set { if (value.Equals(tag)) return; tag = value; OnPropertyChanged(); } }`,
			want: []string{rules.DontUseInstanceEquals},
		},
		{
			name: "string literal name",
			body: `private string name;
    public string Name { get => name; set { if (value == name) return; name = value; OnPropertyChanged("Name"); } }`,
			want: []string{rules.UseNameof},
		},
		{
			name: "recursive getter",
			body: `public string Name => Name;`,
			want: []string{rules.MemberIsRecursive},
		},
		{
			name: "try set",
			body: `private string name;
    public string Name { get => name; set => SetField(ref name, value); }
    bool SetField<T>(ref T field, T value, [CallerMemberName] string propertyName = null)
    {
        if (Equals(field, value)) return false;
        field = value;
        OnPropertyChanged(propertyName);
        return true;
    }`,
		},
		{
			name: "unknown shape",
			body: `private string name;
    public string Name { get => name; set { name = value?.Trim(); OnPropertyChanged(); } }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			diags := analyzeOne(t, usings+`
public sealed class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));

    `+tt.body+`
}`)
			assert.Equal(t, tt.want, ids(diags))
		})
	}
}

func TestEventWithoutInvoker(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, usings+`
public class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
}`)
	assert.Equal(t, []string{rules.EventWithoutInvoker}, ids(diags))
}

func TestGuardComparingWithThis(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, usings+`
public sealed class Node : INotifyPropertyChanged
{
    private Node next;

    public event PropertyChangedEventHandler PropertyChanged;

    public Node Next
    {
        get => this.next;
        set
        {
            if (value.Equals(this)) return;
            this.next = value;
            this.OnPropertyChanged();
        }
    }
` + invoker + `}`)
	assert.NotContains(t, ids(diags), rules.InternalError)
	for _, d := range diags {
		assert.NotEmpty(t, d.Message, d.Category)
	}
}

func TestContractFindings(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, usings+`
public class Base : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    void OnPropertyChanged(string propertyName) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}

public class Shadow : Base
{
    public event PropertyChangedEventHandler PropertyChanged;
}

public struct Point : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
}`)
	assert.ElementsMatch(t, []string{
		rules.InvokerShouldBeProtected,
		rules.UseCallerMemberName,
		rules.DontShadowEvent,
		rules.StructMustNotNotify,
	}, ids(diags))

	for _, d := range diags {
		switch d.Category {
		case rules.InvokerShouldBeProtected, rules.UseCallerMemberName:
			require.Len(t, d.SuggestedFixes, 1, d.Category)
		case rules.DontShadowEvent:
			require.Len(t, d.Related, 1)
		}
	}
}

func TestApplyFixes(t *testing.T) {
	t.Parallel()
	src := usings + `
public class Vm : INotifyPropertyChanged
{
    private Vm parent;

    public event PropertyChangedEventHandler PropertyChanged;

    public Vm Parent
    {
        get => this.parent;
        set
        {
            if (value.Equals(this.parent)) return;
            this.parent = value;
            OnPropertyChanged("Parent");
        }
    }

    void OnPropertyChanged(string propertyName) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}`
	a, files := setup(t, analyze.Options{}, source{"Vm.cs", src})
	diags := a.File(context.Background(), files[0])
	assert.ElementsMatch(t, []string{
		rules.DontUseInstanceEquals,
		rules.UseNameof,
		rules.InvokerShouldBeProtected,
		rules.UseCallerMemberName,
	}, ids(diags))

	want := usings + `
public class Vm : INotifyPropertyChanged
{
    private Vm parent;

    public event PropertyChangedEventHandler PropertyChanged;

    public Vm Parent
    {
        get => this.parent;
        set
        {
            if (value == this.parent) return;
            this.parent = value;
            OnPropertyChanged(nameof(Parent));
        }
    }

    protected void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}`
	assert.Equal(t, want, string(a.ApplyFixes(files[0], diags)))
}

func TestPositions(t *testing.T) {
	t.Parallel()
	a, files := setup(t, analyze.Options{}, source{"Vm.cs", usings + `
public sealed class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    public string Name { get; set; }
` + invoker + `}`})
	diags := a.File(context.Background(), files[0])
	require.Len(t, diags, 1)
	pos := a.FileSet().Position(diags[0].Pos)
	assert.Equal(t, "Vm.cs", pos.Filename)
	assert.Equal(t, 7, pos.Line)
	assert.Equal(t, 19, pos.Column)
}

func TestSuppressions(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, usings+`
public sealed class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;

    // notifyguard:ignore INPC002
    public string A { get; set; }

    public string B { get; set; } // notifyguard:ignore INPC005

    // notifyguard:ignore
    public string C { get; set; }

#pragma warning disable INPC002
    public string D { get; set; }
#pragma warning restore INPC002

    public string E { get; set; }
` + invoker + `}`)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, rules.MutablePublicPropertyShouldNotify, d.Category)
	}
	assert.Contains(t, diags[0].Message, "B")
	assert.Contains(t, diags[1].Message, "E")
}

func TestDisabledRules(t *testing.T) {
	t.Parallel()
	src := usings + `
public sealed class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    public string A { get; set; }
` + invoker + `}`
	a, files := setup(t, analyze.Options{Disabled: []string{"inpc002"}}, source{"Vm.cs", src})
	assert.Empty(t, a.File(context.Background(), files[0]))
}

func TestGeneratedFiles(t *testing.T) {
	t.Parallel()
	src := usings + `
public sealed class Vm : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    public string A { get; set; }
` + invoker + `}`
	marked := "// <auto-generated/>\n" + src

	a, files := setup(t, analyze.Options{},
		source{"Vm.g.cs", src}, source{"Other.cs", marked}, source{"Form.Designer.cs", src})
	for _, f := range files {
		assert.True(t, analyze.IsGenerated(f), f.Path)
		assert.Empty(t, a.File(context.Background(), f), f.Path)
	}

	a, files = setup(t, analyze.Options{IncludeGenerated: true}, source{"Vm.g.cs", src})
	assert.Len(t, a.File(context.Background(), files[0]), 1)
}

func TestRun(t *testing.T) {
	t.Parallel()
	a, files := setup(t, analyze.Options{},
		source{"Base.cs", usings + `
public class Base : INotifyPropertyChanged
{
    public event PropertyChangedEventHandler PropertyChanged;
    protected virtual void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}`},
		source{"Derived.cs", `
public class Derived : Base
{
    public string Name { get; set; }
}`},
		source{"Plain.cs", `public class Plain { public string Name { get; set; } }`},
	)
	got, err := a.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{rules.MutablePublicPropertyShouldNotify}, ids(got["Derived.cs"]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecursionAcrossMembers(t *testing.T) {
	t.Parallel()
	diags := analyzeOne(t, `
public class Vm
{
    public int A => B;
    public int B => A;
    void M(string n) => N(n);
    void N(string n) => M(n);
}`)
	assert.Equal(t, []string{
		rules.MemberIsRecursive,
		rules.MemberIsRecursive,
		rules.MemberIsRecursive,
		rules.MemberIsRecursive,
	}, ids(diags))
	assert.Contains(t, diags[0].Message, "A -> B -> A")
}
