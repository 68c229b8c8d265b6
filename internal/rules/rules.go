// Package rules is the catalog of diagnostics notifyguard reports.
package rules

import (
	"fmt"
	"slices"
	"strings"
)

// Rule identities. They are stable across releases.
const (
	MutablePublicPropertyShouldNotify = "INPC002"
	UseCallerMemberName               = "INPC004"
	CheckIfDifferentBeforeNotifying   = "INPC005"
	EventWithoutInvoker               = "INPC007"
	StructMustNotNotify               = "INPC008"
	GetAndSetDifferentFields          = "INPC010"
	DontShadowEvent                   = "INPC011"
	DontHideInvoker                   = "INPC012"
	UseNameof                         = "INPC013"
	MemberIsRecursive                 = "INPC015"
	NotifyAfterAssign                 = "INPC016"
	BackingFieldNameMustMatch         = "INPC017"
	InvokerShouldBeProtected          = "INPC018"
	SetterShouldAssignField           = "INPC021"
	GuardComparesWrongField           = "INPC022"
	DontUseInstanceEquals             = "INPC023"
	ReferenceEqualsIsAlwaysFalse      = "INPC024"
	InternalError                     = "INPC900"
)

// Severity is the default reporting level of a rule.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Rank orders severities from info (0) to error (2).
func (s Severity) Rank() int {
	switch s {
	case Warning:
		return 1
	case Error:
		return 2
	}
	return 0
}

// ParseSeverity accepts info, warning and error in any case.
func ParseSeverity(s string) (Severity, error) {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case Info, Warning, Error:
		return v, nil
	}
	return "", fmt.Errorf("unknown severity %q (want info, warning or error)", s)
}

// Rule describes one diagnostic.
type Rule struct {
	ID          string
	Title       string
	Description string
	Help        string
	Severity    Severity
	// Fixable is set when diagnostics carry a suggested fix.
	Fixable bool
}

var catalog = []Rule{
	{
		ID:          MutablePublicPropertyShouldNotify,
		Title:       "Mutable public property should notify",
		Description: "All mutable public properties of a type implementing INotifyPropertyChanged should raise PropertyChanged when set.",
		Help:        "Assign the backing field and call the invoker after checking that the value changed.",
		Severity:    Warning,
	},
	{
		ID:          UseCallerMemberName,
		Title:       "Use [CallerMemberName]",
		Description: "The property-name parameter of an invoker should be marked [CallerMemberName] so callers can omit it.",
		Help:        "Declare the parameter as `[CallerMemberName] string propertyName = null`.",
		Severity:    Info,
		Fixable:     true,
	},
	{
		ID:          CheckIfDifferentBeforeNotifying,
		Title:       "Check if value is different before notifying",
		Description: "A setter should return early when the new value equals the current one.",
		Help:        "Add `if (value == field) return;` before the assignment.",
		Severity:    Warning,
	},
	{
		ID:          EventWithoutInvoker,
		Title:       "Event declared without invoker",
		Description: "A type declaring PropertyChanged should have a method that raises it.",
		Help:        "Add `protected virtual void OnPropertyChanged([CallerMemberName] string propertyName = null)`.",
		Severity:    Warning,
	},
	{
		ID:          StructMustNotNotify,
		Title:       "Struct must not implement INotifyPropertyChanged",
		Description: "Value types are copied on assignment and boxing, so subscribers observe a different instance.",
		Help:        "Make the type a class.",
		Severity:    Error,
	},
	{
		ID:          GetAndSetDifferentFields,
		Title:       "Property gets and sets different fields",
		Description: "The getter returns a different field than the setter assigns.",
		Help:        "Read and write the same backing field.",
		Severity:    Warning,
	},
	{
		ID:          DontShadowEvent,
		Title:       "Don't shadow PropertyChanged event",
		Description: "The event hides the inherited PropertyChanged event; subscribers of the base event are never notified.",
		Help:        "Remove the event and use the inherited one.",
		Severity:    Error,
	},
	{
		ID:          DontHideInvoker,
		Title:       "Don't hide the inherited invoker",
		Description: "The method hides an inherited invoker with the same signature.",
		Help:        "Override the inherited invoker or remove the method.",
		Severity:    Warning,
	},
	{
		ID:          UseNameof,
		Title:       "Use nameof",
		Description: "Property names passed as string literals go stale when the property is renamed.",
		Help:        "Replace the literal with nameof(Property).",
		Severity:    Warning,
		Fixable:     true,
	},
	{
		ID:          MemberIsRecursive,
		Title:       "Member is recursive",
		Description: "The member accesses or delegates to itself and overflows the stack when used.",
		Help:        "Use the backing field instead of the property.",
		Severity:    Error,
	},
	{
		ID:          NotifyAfterAssign,
		Title:       "Notify after assigning the backing field",
		Description: "Notification before the assignment lets subscribers read the old value.",
		Help:        "Move the notification after the assignment.",
		Severity:    Warning,
	},
	{
		ID:          BackingFieldNameMustMatch,
		Title:       "Backing field name should match property",
		Description: "The backing field should be named after its property.",
		Help:        "Rename the field to the camel-case property name, optionally prefixed with an underscore.",
		Severity:    Info,
	},
	{
		ID:          InvokerShouldBeProtected,
		Title:       "Invoker should be protected when the class is not sealed",
		Description: "Derived types cannot raise PropertyChanged through a private invoker.",
		Help:        "Make the invoker protected, or seal the class.",
		Severity:    Warning,
		Fixable:     true,
	},
	{
		ID:          SetterShouldAssignField,
		Title:       "Setter should assign the backing field",
		Description: "The setter notifies or returns without ever assigning the field the getter reads.",
		Help:        "Assign the backing field from value.",
		Severity:    Error,
	},
	{
		ID:          GuardComparesWrongField,
		Title:       "Equality check should compare with the backing field",
		Description: "The guard compares value with a different field than the setter assigns.",
		Help:        "Compare value with the assigned backing field.",
		Severity:    Warning,
	},
	{
		ID:          DontUseInstanceEquals,
		Title:       "Don't use instance Equals in setter",
		Description: "value.Equals(field) throws when value is null and may use a different equality than the operator.",
		Help:        "Compare with the == operator.",
		Severity:    Warning,
		Fixable:     true,
	},
	{
		ID:          ReferenceEqualsIsAlwaysFalse,
		Title:       "ReferenceEquals is always false for value types",
		Description: "Both arguments are boxed separately, so the guard never returns early.",
		Help:        "Compare with == or EqualityComparer<T>.Default.Equals.",
		Severity:    Warning,
	},
	{
		ID:          InternalError,
		Title:       "Internal error",
		Description: "notifyguard hit an internal invariant violation while analyzing this type.",
		Help:        "Please report the input that triggered it.",
		Severity:    Error,
	},
}

var byID = func() map[string]Rule {
	m := make(map[string]Rule, len(catalog))
	for _, r := range catalog {
		m[r.ID] = r
	}
	return m
}()

// All returns the catalog ordered by ID.
func All() []Rule { return slices.Clone(catalog) }

// Lookup returns the rule with the given ID.
func Lookup(id string) (Rule, bool) {
	r, ok := byID[strings.ToUpper(strings.TrimSpace(id))]
	return r, ok
}

// Get returns the rule with the given ID and panics when it is unknown.
func Get(id string) Rule {
	r, ok := byID[id]
	if !ok {
		panic("rules: unknown rule " + id)
	}
	return r
}
