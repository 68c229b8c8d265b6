// Package symbols binds the syntax of a set of C# files into a best-effort
// semantic model: named types with their base chains, members, and the
// symbols that identifiers and member accesses refer to.
//
// Binding never fails. References that cannot be resolved, such as types
// from assemblies that are not part of the compilation, are reported as
// nil symbols or recorded as unresolved bases so that callers can treat them
// as indeterminate.
package symbols

import (
	"iter"
	"strconv"
	"strings"

	"github.com/phobologic/notifyguard/internal/syntax"
)

// Kind is the kind of a Symbol.
type Kind uint8

//go:generate go tool stringer -type Kind -linecomment
const (
	KindUnknown   Kind = iota // symbol
	KindAssembly              // assembly
	KindNamespace             // namespace
	KindType                  // type
	KindField                 // field
	KindProperty              // property
	KindMethod                // method
	KindEvent                 // event
	KindParameter             // parameter
	KindLocal                 // local
)

// Symbol is a named entity of the compilation.
type Symbol interface {
	Kind() Kind
	Name() string
	// Container returns the enclosing symbol, or nil for the assembly.
	Container() Symbol
}

// Accessibility is the declared accessibility of a member or type.
type Accessibility uint8

const (
	AccessPrivate Accessibility = iota + 1
	AccessPrivateProtected
	AccessProtected
	AccessInternal
	AccessProtectedInternal
	AccessPublic
)

func (a Accessibility) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessPrivateProtected:
		return "private protected"
	case AccessProtected:
		return "protected"
	case AccessInternal:
		return "internal"
	case AccessProtectedInternal:
		return "protected internal"
	case AccessPublic:
		return "public"
	}
	return "Accessibility(" + strconv.Itoa(int(a)) + ")"
}

func accessibility(m syntax.Modifiers, def Accessibility) Accessibility {
	switch {
	case m.Has(syntax.Public):
		return AccessPublic
	case m.Has(syntax.Protected | syntax.Internal):
		return AccessProtectedInternal
	case m.Has(syntax.Private | syntax.Protected):
		return AccessPrivateProtected
	case m.Has(syntax.Protected):
		return AccessProtected
	case m.Has(syntax.Internal):
		return AccessInternal
	case m.Has(syntax.Private):
		return AccessPrivate
	}
	return def
}

// Assembly is the root of all source symbols.
type Assembly struct{ name string }

func (a *Assembly) Kind() Kind        { return KindAssembly }
func (a *Assembly) Name() string      { return a.name }
func (a *Assembly) Container() Symbol { return nil }

// Namespace is a namespace. The global namespace has no parts.
type Namespace struct {
	parts    []string
	assembly *Assembly
}

func (n *Namespace) Kind() Kind { return KindNamespace }

func (n *Namespace) Name() string {
	if len(n.parts) == 0 {
		return ""
	}
	return n.parts[len(n.parts)-1]
}

func (n *Namespace) Container() Symbol { return n.assembly }

// Parts returns the dotted components of the namespace name.
func (n *Namespace) Parts() []string { return n.parts }

// FullName returns the dotted namespace name.
func (n *Namespace) FullName() string { return strings.Join(n.parts, ".") }

// Type is a named type: either declared in source, possibly across several
// partial declarations, or known from metadata.
type Type struct {
	name       string
	arity      int
	ns         *Namespace
	containing *Type
	kind       syntax.TypeKind
	mods       syntax.Modifiers
	decls      []*syntax.TypeDecl
	source     bool
	notifying  bool

	base       *Type
	interfaces []*Type
	unresolved []*syntax.TypeRef

	fields  []*Field
	props   []*Property
	methods []*Method
	events  []*Event
	nested  map[string]*Type
}

func (t *Type) Kind() Kind       { return KindType }
func (t *Type) Name() string     { return t.name }
func (t *Type) Arity() int       { return t.arity }
func (t *Type) FromSource() bool { return t.source }

func (t *Type) Container() Symbol {
	if t.containing != nil {
		return t.containing
	}
	return t.ns
}

// Namespace returns the namespace the type, or its outermost containing
// type, is declared in.
func (t *Type) Namespace() *Namespace { return t.ns }

// ContainingType returns the enclosing type of a nested type.
func (t *Type) ContainingType() *Type { return t.containing }

// FullName returns the dotted name including namespace and containing types,
// with a backtick arity suffix for generic types.
func (t *Type) FullName() string {
	var b strings.Builder
	if t.containing != nil {
		b.WriteString(t.containing.FullName())
		b.WriteByte('.')
	} else if t.ns != nil && len(t.ns.parts) > 0 {
		b.WriteString(t.ns.FullName())
		b.WriteByte('.')
	}
	b.WriteString(metadataName(t.name, t.arity))
	return b.String()
}

func metadataName(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(arity)
}

// TypeKind returns the declaration kind.
func (t *Type) TypeKind() syntax.TypeKind { return t.kind }

// Modifiers returns the union of the modifiers of all declarations.
func (t *Type) Modifiers() syntax.Modifiers { return t.mods }

// Decls returns the source declarations, one per partial part.
func (t *Type) Decls() []*syntax.TypeDecl { return t.decls }

// IsValueType reports whether the type is a struct, enum or record struct.
func (t *Type) IsValueType() bool { return t.kind.ValueType() }

// IsSealed reports whether no type can derive from t. Structs, enums and
// static classes are implicitly sealed.
func (t *Type) IsSealed() bool {
	return t.mods.Has(syntax.Sealed) || t.mods.Has(syntax.Static) || t.kind.ValueType()
}

// KnownNotifying reports whether t is a metadata base class known to
// implement the notification pattern completely.
func (t *Type) KnownNotifying() bool { return t.notifying }

// Base returns the resolved base class, or nil.
func (t *Type) Base() *Type { return t.base }

// Interfaces returns the directly implemented interfaces that resolved.
func (t *Type) Interfaces() []*Type { return t.interfaces }

// UnresolvedBases returns base-list entries that did not resolve to any
// type in the compilation.
func (t *Type) UnresolvedBases() []*syntax.TypeRef { return t.unresolved }

func (t *Type) Fields() []*Field        { return t.fields }
func (t *Type) Properties() []*Property { return t.props }
func (t *Type) Methods() []*Method      { return t.methods }
func (t *Type) Events() []*Event        { return t.events }

// BaseTypes yields the base class chain starting with the direct base.
// Cyclic inheritance in malformed source is cut at the first repeat.
func (t *Type) BaseTypes() iter.Seq[*Type] {
	return func(yield func(*Type) bool) {
		seen := map[*Type]bool{t: true}
		for b := t.base; b != nil && !seen[b]; b = b.base {
			seen[b] = true
			if !yield(b) {
				return
			}
		}
	}
}

// AllInterfaces returns every interface implemented by t, its bases and the
// interfaces' own bases, without duplicates.
func (t *Type) AllInterfaces() []*Type {
	var out []*Type
	seen := map[*Type]bool{}
	var visit func(*Type)
	visit = func(i *Type) {
		if seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
		for _, b := range i.interfaces {
			visit(b)
		}
	}
	for _, i := range t.interfaces {
		visit(i)
	}
	for b := range t.BaseTypes() {
		for _, i := range b.interfaces {
			visit(i)
		}
	}
	return out
}

// LeavesCompilation reports whether t or a type in its base chain derives
// from a class that did not resolve, so the full set of inherited members
// is unknown.
func (t *Type) LeavesCompilation() bool {
	if len(t.unresolvedClassBases()) > 0 {
		return true
	}
	for b := range t.BaseTypes() {
		if len(b.unresolvedClassBases()) > 0 {
			return true
		}
	}
	return false
}

// FieldNamed returns the field declared directly in t with the given name.
func (t *Type) FieldNamed(name string) *Field {
	for _, f := range t.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// PropertyNamed returns the property declared directly in t.
func (t *Type) PropertyNamed(name string) *Property {
	for _, p := range t.props {
		if p.name == name {
			return p
		}
	}
	return nil
}

// EventNamed returns the event declared directly in t.
func (t *Type) EventNamed(name string) *Event {
	for _, e := range t.events {
		if e.name == name {
			return e
		}
	}
	return nil
}

// MethodsNamed returns the overloads declared directly in t.
func (t *Type) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range t.methods {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

type member struct {
	name   string
	owner  *Type
	mods   syntax.Modifiers
	access Accessibility
}

func (m *member) Name() string                 { return m.name }
func (m *member) Container() Symbol            { return m.owner }
func (m *member) Owner() *Type                 { return m.owner }
func (m *member) Modifiers() syntax.Modifiers  { return m.mods }
func (m *member) Accessibility() Accessibility { return m.access }
func (m *member) IsStatic() bool               { return m.mods.Has(syntax.Static) || m.mods.Has(syntax.Const) }

// Field is one variable of a field declaration.
type Field struct {
	member
	decl *syntax.Field
	v    *syntax.VarDecl
}

func (f *Field) Kind() Kind { return KindField }

// Decl returns the declaration the field belongs to.
func (f *Field) Decl() *syntax.Field { return f.decl }

// Var returns the declarator of this field.
func (f *Field) Var() *syntax.VarDecl { return f.v }

// TypeRef returns the declared type.
func (f *Field) TypeRef() *syntax.TypeRef { return f.decl.Type }

// Property is a property.
type Property struct {
	member
	decl  *syntax.Property
	value *Parameter
}

func (p *Property) Kind() Kind               { return KindProperty }
func (p *Property) Decl() *syntax.Property   { return p.decl }
func (p *Property) TypeRef() *syntax.TypeRef { return p.decl.Type }
func (p *Property) Getter() *syntax.Accessor { return p.decl.Get }
func (p *Property) Setter() *syntax.Accessor { return p.decl.Set }

// Value returns the implicit setter parameter, or nil without a setter.
func (p *Property) Value() *Parameter { return p.value }

// IsAuto reports whether the property is an auto-property: it has accessors
// and none of them has a body.
func (p *Property) IsAuto() bool {
	d := p.decl
	if d.ExprBodied || d.Get == nil && d.Set == nil {
		return false
	}
	return (d.Get == nil || d.Get.Body.Empty()) && (d.Set == nil || d.Set.Body.Empty())
}

// SetterAccessibility returns the accessibility of the setter, which may be
// narrower than the property's own.
func (p *Property) SetterAccessibility() Accessibility {
	if p.decl.Set == nil {
		return 0
	}
	return accessibility(p.decl.Set.Modifiers, p.access)
}

// Method is a method.
type Method struct {
	member
	decl   *syntax.Method
	params []*Parameter
}

func (m *Method) Kind() Kind           { return KindMethod }
func (m *Method) Decl() *syntax.Method { return m.decl }
func (m *Method) Params() []*Parameter { return m.params }

// Body returns the method body; empty for metadata methods.
func (m *Method) Body() syntax.Body {
	if m.decl == nil {
		return syntax.Body{}
	}
	return m.decl.Body
}

// Signature renders the parameter types, used for declaration identity.
func (m *Method) Signature() string {
	parts := make([]string, len(m.params))
	for i, p := range m.params {
		parts[i] = p.TypeRef().String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Event is an event, either a field-like event or one with accessors.
type Event struct {
	member
	decl *syntax.Event
	v    *syntax.VarDecl
	typ  *syntax.TypeRef
}

func (e *Event) Kind() Kind { return KindEvent }

// Decl returns the source declaration, or nil for metadata events.
func (e *Event) Decl() *syntax.Event { return e.decl }

// TypeRef returns the delegate type of the event.
func (e *Event) TypeRef() *syntax.TypeRef { return e.typ }

// FieldLike reports whether the event is declared without accessors.
func (e *Event) FieldLike() bool { return e.decl != nil && len(e.decl.Accessors) == 0 }

// Parameter is a method parameter or the implicit `value` of a setter.
type Parameter struct {
	name     string
	owner    Symbol
	decl     *syntax.Parameter
	typ      *syntax.TypeRef
	ordinal  int
	implicit bool
}

func (p *Parameter) Kind() Kind               { return KindParameter }
func (p *Parameter) Name() string             { return p.name }
func (p *Parameter) Container() Symbol        { return p.owner }
func (p *Parameter) Ordinal() int             { return p.ordinal }
func (p *Parameter) TypeRef() *syntax.TypeRef { return p.typ }

// Implicit reports whether this is the compiler-provided setter parameter.
func (p *Parameter) Implicit() bool { return p.implicit }

// Decl returns the declaration, or nil for implicit parameters.
func (p *Parameter) Decl() *syntax.Parameter { return p.decl }

// RefKind returns the passing mode.
func (p *Parameter) RefKind() syntax.RefKind {
	if p.decl == nil {
		return syntax.ByValue
	}
	return p.decl.Ref
}

// Optional reports whether callers may omit the argument.
func (p *Parameter) Optional() bool { return p.decl != nil && p.decl.Default != nil }

// Attributes returns the parameter attributes.
func (p *Parameter) Attributes() []*syntax.Attribute {
	if p.decl == nil {
		return nil
	}
	return p.decl.Attributes
}

// Local is a local variable declared in a member body.
type Local struct {
	name  string
	owner Symbol
	decl  *syntax.LocalDecl
}

func (l *Local) Kind() Kind              { return KindLocal }
func (l *Local) Name() string            { return l.name }
func (l *Local) Container() Symbol       { return l.owner }
func (l *Local) Decl() *syntax.LocalDecl { return l.decl }
