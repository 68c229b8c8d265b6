package backing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/notifyguard/internal/backing"
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/parse"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

func resolver(t *testing.T, src string) (*symbols.Compilation, *backing.Resolver) {
	t.Helper()
	p, err := parse.New()
	require.NoError(t, err)
	f, err := p.Parse(context.Background(), []byte(src), "test.cs")
	require.NoError(t, err)
	names := qualname.DefaultNames()
	c := symbols.Bind([]*syntax.File{f}, names.Metadata()...)
	return c, backing.New(c, notify.New(c, names))
}

const vm = `
using System.ComponentModel;
using System.Runtime.CompilerServices;

class Vm : INotifyPropertyChanged
{
    private string name;
    private string first;
    private string second;
    private int count;
    private string _title;

    public event PropertyChangedEventHandler PropertyChanged;

    public string Name
    {
        get { return this.name; }
        set
        {
            if (value == name) return;
            name = value;
            OnPropertyChanged();
        }
    }

    public string Both
    {
        get => first;
        set { second = value; OnPropertyChanged(); }
    }

    public int Count
    {
        get => count;
        set => SetField(ref this.count, value);
    }

    public string Title
    {
        get => _title;
        set { _title = value; OnPropertyChanged(); }
    }

    public string Computed
    {
        get => (string)GetValue("Computed");
        set => SetValue("Computed", value);
    }

    public string Auto { get; set; }

    public string Upper
    {
        get => name;
        set { name = value.ToUpper(); OnPropertyChanged(); }
    }

    protected void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));

    protected bool SetField<T>(ref T field, T value, [CallerMemberName] string propertyName = null)
    {
        field = value;
        OnPropertyChanged(propertyName);
        return true;
    }

    object GetValue(string key) => null;
    void SetValue(string key, object value) { }
}`

func TestResolve(t *testing.T) {
	t.Parallel()
	c, r := resolver(t, vm)
	v := c.Lookup("Vm")
	require.NotNil(t, v)

	tests := []struct {
		prop   string
		status backing.Status
		field  string
		trySet bool
	}{
		{"Name", backing.Bound, "name", false},
		{"Both", backing.Mismatch, "", false},
		{"Count", backing.Bound, "count", true},
		{"Title", backing.Bound, "_title", false},
		{"Computed", backing.Unresolved, "", false},
		{"Auto", backing.Unresolved, "", false},
		{"Upper", backing.Unresolved, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.prop, func(t *testing.T) {
			p := v.PropertyNamed(tt.prop)
			require.NotNil(t, p)
			b := r.Resolve(p)
			assert.Equal(t, tt.status, b.Status, "status is %s", b.Status)
			assert.Equal(t, tt.trySet, b.TrySet)
			if tt.field == "" {
				assert.Nil(t, b.Field)
				return
			}
			require.NotNil(t, b.Field)
			assert.Equal(t, tt.field, b.Field.Name())
		})
	}
}

func TestResolveMismatchKeepsBothSides(t *testing.T) {
	t.Parallel()
	c, r := resolver(t, vm)
	b := r.Resolve(c.Lookup("Vm").PropertyNamed("Both"))
	require.Equal(t, backing.Mismatch, b.Status)
	assert.Equal(t, "first", b.GetterField.Name())
	assert.Equal(t, "second", b.SetterField.Name())
	assert.NotNil(t, b.GetterExpr)
	assert.NotNil(t, b.SetterExpr)
}

func TestResolveNil(t *testing.T) {
	t.Parallel()
	_, r := resolver(t, vm)
	assert.Equal(t, backing.Unresolved, r.Resolve(nil).Status)
}

func TestNameMatches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		property, field string
		want            bool
	}{
		{"Name", "name", true},
		{"Name", "_name", true},
		{"Name", "m_name", true},
		{"Name", "Name", true},
		{"Name", "_Name", true},
		{"Name", "nameField", false},
		{"Name", "title", false},
		{"URL", "uRL", true},
		{"Name", "__name", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backing.NameMatches(tt.property, tt.field), "%s/%s", tt.property, tt.field)
	}
}

func TestExpectedName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "name", backing.ExpectedName("Name"))
	assert.Equal(t, "éclair", backing.ExpectedName("Éclair"))
	assert.Equal(t, "", backing.ExpectedName(""))
	assert.Equal(t, "bound", backing.Bound.String())
	assert.Equal(t, "unresolved", backing.Unresolved.String())
}
