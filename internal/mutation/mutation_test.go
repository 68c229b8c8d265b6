package mutation_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/notifyguard/internal/backing"
	"github.com/phobologic/notifyguard/internal/mutation"
	"github.com/phobologic/notifyguard/internal/notify"
	"github.com/phobologic/notifyguard/internal/parse"
	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// classify wraps a single property declaration in a notifying class with
// the usual invoker, fields and try-set helper.
func classify(t *testing.T, typ, prop string) mutation.Classification {
	t.Helper()
	return classifyGetter(t, typ, "this.name", prop)
}

func classifyGetter(t *testing.T, typ, get, prop string) mutation.Classification {
	t.Helper()
	src := fmt.Sprintf(`
using System.Collections.Generic;
using System.ComponentModel;
using System.Runtime.CompilerServices;

public class Item { }

public class Vm : INotifyPropertyChanged
{
    private %[1]s name;
    private %[1]s other;

    public event PropertyChangedEventHandler PropertyChanged;

    public %[1]s Name
    {
        get => %[2]s;
        %[3]s
    }

    protected virtual void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));

    protected bool SetField<T>(ref T field, T value, [CallerMemberName] string propertyName = null)
    {
        if (EqualityComparer<T>.Default.Equals(field, value)) return false;
        field = value;
        OnPropertyChanged(propertyName);
        return true;
    }
}`, typ, get, prop)

	p, err := parse.New()
	require.NoError(t, err)
	f, err := p.Parse(context.Background(), []byte(src), "vm.cs")
	require.NoError(t, err)
	names := qualname.DefaultNames()
	c := symbols.Bind([]*syntax.File{f}, names.Metadata()...)
	notes := notify.New(c, names)
	cl := mutation.New(c, notes, backing.New(c, notes))

	vm := c.Lookup("Vm")
	require.NotNil(t, vm)
	return cl.Classify(vm.PropertyNamed("Name"))
}

func TestClassifyOutcomes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		typ  string
		set  string
		want mutation.Outcome
	}{
		{"early return", "string", `set { if (value == this.name) return; this.name = value; this.OnPropertyChanged(); }`, mutation.ValidVanilla},
		{"nested if", "string", `set { if (value != name) { name = value; OnPropertyChanged(); } }`, mutation.ValidVanilla},
		{"object equals", "int", `set { if (Equals(value, name)) { return; } name = value; OnPropertyChanged(nameof(Name)); }`, mutation.ValidVanilla},
		{"comparer", "Item", `set { if (EqualityComparer<Item>.Default.Equals(value, name)) return; name = value; OnPropertyChanged(); }`, mutation.ValidVanilla},
		{"string equals", "string", `set { if (string.Equals(value, name, System.StringComparison.Ordinal)) return; name = value; OnPropertyChanged(); }`, mutation.ValidVanilla},
		{"no guard", "string", `set { name = value; OnPropertyChanged(); }`, mutation.ValidVanilla},
		{"string instance equals", "string", `set { if (value.Equals(name)) return; name = value; OnPropertyChanged(); }`, mutation.BadEqualityCheck},
		{"framework reference instance equals", "System.Uri", `set { if (value.Equals(this.name)) return; this.name = value; OnPropertyChanged(); }`, mutation.BadEqualityCheck},
		{"value type instance equals", "int", `set { if (value.Equals(name)) return; name = value; OnPropertyChanged(); }`, mutation.ValidVanilla},
		{"try set", "string", `set => SetField(ref name, value);`, mutation.ValidTrySet},
		{"try set block", "string", `set { if (SetField(ref this.name, value)) { OnPropertyChanged(nameof(Other)); } }`, mutation.ValidTrySet},
		{"missing assignment", "string", `set { OnPropertyChanged(); }`, mutation.MissingAssignment},
		{"missing notification", "string", `set { if (value == name) return; name = value; }`, mutation.MissingNotification},
		{"instance equals", "Item", `set { if (value.Equals(this.name)) return; this.name = value; OnPropertyChanged(); }`, mutation.BadEqualityCheck},
		{"negated instance equals", "object", `set { if (!value.Equals(name)) { name = value; OnPropertyChanged(); } }`, mutation.BadEqualityCheck},
		{"inverted early return", "string", `set { if (value != name) return; name = value; OnPropertyChanged(); }`, mutation.Indeterminate},
		{"unknown guard", "string", `set { if (value.Length > 3) return; name = value; OnPropertyChanged(); }`, mutation.Indeterminate},
		{"transformed value", "string", `set { name = value.Trim(); OnPropertyChanged(); }`, mutation.Indeterminate},
		{"try set with other value", "string", `set => SetField(ref name, value.Trim());`, mutation.Indeterminate},
		{"empty setter", "string", `set { }`, mutation.MissingAssignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify(t, tt.typ, tt.set)
			assert.Equal(t, tt.want, got.Outcome, "got %s", got.Outcome)
		})
	}
}

func TestClassifyComputedGetter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		set  string
		want mutation.Outcome
	}{
		{"forwards elsewhere", `set { Forward(value); }`, mutation.Indeterminate},
		{"empty setter", `set { }`, mutation.Indeterminate},
		{"notifies only", `set { OnPropertyChanged(); }`, mutation.MissingAssignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyGetter(t, "string", `"fixed"`, tt.set)
			assert.Equal(t, tt.want, got.Outcome, "got %s", got.Outcome)
			assert.Nil(t, got.Assignment)
		})
	}
}

func TestClassifyVanillaFacts(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set { if (value == this.name) return; this.name = value; this.OnPropertyChanged(); }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)

	require.NotNil(t, c.Guard)
	assert.True(t, c.Guard.EarlyReturn)
	assert.False(t, c.Guard.Negated)
	assert.Equal(t, mutation.CompareOperator, c.Guard.Comparison)
	require.NotNil(t, c.Field)
	assert.Equal(t, "name", c.Field.Name())
	assert.Same(t, c.Field, c.GuardField)
	assert.False(t, c.WrongGuardField())
	assert.NotNil(t, c.Assignment)
	assert.Len(t, c.Notifications, 1)
	assert.False(t, c.NotifiesBeforeAssign)
	assert.Equal(t, backing.Bound, c.Binding.Status)
}

func TestClassifyNestedGuard(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set { if (value != name) { name = value; OnPropertyChanged(); } }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)
	require.NotNil(t, c.Guard)
	assert.False(t, c.Guard.EarlyReturn)
	assert.True(t, c.Guard.Negated)
}

func TestClassifyTrySet(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set => SetField(ref name, value);`)
	require.Equal(t, mutation.ValidTrySet, c.Outcome)
	require.NotNil(t, c.TrySet)
	assert.Equal(t, "name", c.Field.Name())
	assert.Nil(t, c.Guard)
}

func TestClassifyMissingAssignmentField(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set { OnPropertyChanged(); }`)
	require.Equal(t, mutation.MissingAssignment, c.Outcome)
	require.NotNil(t, c.Field)
	assert.Equal(t, "name", c.Field.Name(), "the getter's field")
}

func TestClassifyWrongGuardField(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set { if (value == other) return; name = value; OnPropertyChanged(); }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)
	assert.True(t, c.WrongGuardField())
	assert.Equal(t, "other", c.GuardField.Name())
}

func TestClassifyNotifiesBeforeAssign(t *testing.T) {
	t.Parallel()
	c := classify(t, "string", `set { if (value == name) return; OnPropertyChanged(); name = value; }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)
	assert.True(t, c.NotifiesBeforeAssign)
}

func TestClassifyReferenceEquals(t *testing.T) {
	t.Parallel()
	c := classify(t, "int", `set { if (ReferenceEquals(value, name)) return; name = value; OnPropertyChanged(); }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)
	assert.Equal(t, mutation.CompareReferenceEquals, c.Guard.Comparison)
	assert.True(t, c.ReferenceEqualsOnValueType)

	c = classify(t, "Item", `set { if (object.ReferenceEquals(value, name)) return; name = value; OnPropertyChanged(); }`)
	require.Equal(t, mutation.ValidVanilla, c.Outcome)
	assert.False(t, c.ReferenceEqualsOnValueType)
}

func TestClassifyEqualityFix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		set  string
		want string
	}{
		{`set { if (value.Equals(this.name)) return; this.name = value; OnPropertyChanged(); }`, "value == this.name"},
		{`set { if (!value.Equals(name)) { name = value; OnPropertyChanged(); } }`, "value != name"},
	}
	for _, tt := range tests {
		c := classify(t, "Item", tt.set)
		require.Equal(t, mutation.BadEqualityCheck, c.Outcome)
		require.NotNil(t, c.EqualityFix)
		assert.Equal(t, tt.want, c.EqualityFix.Text)
		assert.Equal(t, mutation.CompareInstanceEquals, c.Guard.Comparison)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "valid-vanilla", mutation.ValidVanilla.String())
	assert.Equal(t, "valid-try-set-delegate", mutation.ValidTrySet.String())
	assert.Equal(t, "indeterminate", mutation.Indeterminate.String())
	assert.Equal(t, "unknown", mutation.Outcome(99).String())
	assert.Equal(t, "ReferenceEquals", mutation.CompareReferenceEquals.String())
	assert.Equal(t, "unknown", mutation.Comparison(99).String())
}
