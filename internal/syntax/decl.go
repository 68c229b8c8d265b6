package syntax

import "strings"

// TypeRef is a syntactic type reference such as `string`, `int?`,
// `System.ComponentModel.INotifyPropertyChanged` or `List<T>`.
type TypeRef struct {
	// Qualifier holds the dotted prefix of a qualified name, e.g.
	// ["System", "ComponentModel"]. Empty for simple names.
	Qualifier []string
	Name      string
	Args      []*TypeRef
	// Keyword is set for predefined types written with a C# keyword
	// (`string`, `int`, `object`...).
	Keyword  bool
	Nullable bool
	Array    bool
	// Alias holds the `alias::` prefix, e.g. "global".
	Alias string
	Span  Span
}

// Pos implements Node.
func (t *TypeRef) Pos() Span { return t.Span }

// Qualified reports whether the reference carries a namespace or type qualifier.
func (t *TypeRef) Qualified() bool { return t != nil && len(t.Qualifier) > 0 }

// String renders the reference the way it would be written in source,
// without the alias prefix.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, q := range t.Qualifier {
		b.WriteString(q)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	if t.Array {
		b.WriteString("[]")
	}
	if t.Nullable {
		b.WriteByte('?')
	}
	return b.String()
}

// Modifiers is a set of declaration modifiers.
type Modifiers uint32

const (
	Public Modifiers = 1 << iota
	Private
	Protected
	Internal
	Static
	Sealed
	Abstract
	Virtual
	Override
	New
	Readonly
	Partial
	Const
	Extern
	Async
	Ref
)

var modifierWords = map[string]Modifiers{
	"public":    Public,
	"private":   Private,
	"protected": Protected,
	"internal":  Internal,
	"static":    Static,
	"sealed":    Sealed,
	"abstract":  Abstract,
	"virtual":   Virtual,
	"override":  Override,
	"new":       New,
	"readonly":  Readonly,
	"partial":   Partial,
	"const":     Const,
	"extern":    Extern,
	"async":     Async,
	"ref":       Ref,
}

// ModifierFor returns the modifier for a C# keyword, or 0.
func ModifierFor(word string) Modifiers { return modifierWords[word] }

// Has reports whether all bits of m are set.
func (ms Modifiers) Has(m Modifiers) bool { return ms&m == m }

// Modifier is one modifier keyword occurrence, kept for rewrites.
type Modifier struct {
	Word string
	Span Span
}

// Attribute is a single attribute inside an attribute list.
type Attribute struct {
	Name *TypeRef
	Args []*Arg
	Span Span
}

// Parameter is a method or indexer parameter.
type Parameter struct {
	Name       string
	Type       *TypeRef
	Ref        RefKind
	Default    Expr
	Attributes []*Attribute
	Span       Span
	NameSpan   Span
}

// AccessorKind is the keyword of an accessor.
type AccessorKind uint8

const (
	Get AccessorKind = iota + 1
	Set
	Init
	Add
	Remove
)

// Accessor is a property or event accessor.
type Accessor struct {
	Kind      AccessorKind
	Modifiers Modifiers
	Body      Body
	Span      Span
}

// VarDecl is one declarator of a field or event field declaration.
type VarDecl struct {
	Name string
	Init Expr
	Span Span
}

// Member is implemented by all member declarations.
type Member interface {
	Node
	Mods() Modifiers
	Owner() *TypeDecl
}

// Field is a field declaration. A declaration may declare several variables.
type Field struct {
	Modifiers    Modifiers
	ModifierList []Modifier
	Type         *TypeRef
	Vars         []*VarDecl
	Parent       *TypeDecl
	Span         Span
}

// Property is a property declaration. An expression-bodied property
// (`int X => expr;`) has Get set to an accessor whose body is that
// expression and ExprBodied set.
type Property struct {
	Modifiers    Modifiers
	ModifierList []Modifier
	Attributes   []*Attribute
	Type         *TypeRef
	Name         string
	Get          *Accessor
	Set          *Accessor
	ExprBodied   bool
	Initializer  Expr
	Parent       *TypeDecl
	NameSpan     Span
	Span         Span
}

// Method is a method declaration.
type Method struct {
	Modifiers    Modifiers
	ModifierList []Modifier
	Attributes   []*Attribute
	Return       *TypeRef
	Name         string
	TypeParams   []string
	Params       []*Parameter
	Body         Body
	Parent       *TypeDecl
	NameSpan     Span
	Span         Span
}

// Event is an event field declaration (`event H PropertyChanged;`) or an
// event declaration with add/remove accessors.
type Event struct {
	Modifiers    Modifiers
	ModifierList []Modifier
	Type         *TypeRef
	Vars         []*VarDecl
	Accessors    []*Accessor
	Parent       *TypeDecl
	Span         Span
}

func (m *Field) Pos() Span    { return m.Span }
func (m *Property) Pos() Span { return m.Span }
func (m *Method) Pos() Span   { return m.Span }
func (m *Event) Pos() Span    { return m.Span }

func (m *Field) Mods() Modifiers    { return m.Modifiers }
func (m *Property) Mods() Modifiers { return m.Modifiers }
func (m *Method) Mods() Modifiers   { return m.Modifiers }
func (m *Event) Mods() Modifiers    { return m.Modifiers }

func (m *Field) Owner() *TypeDecl    { return m.Parent }
func (m *Property) Owner() *TypeDecl { return m.Parent }
func (m *Method) Owner() *TypeDecl   { return m.Parent }
func (m *Event) Owner() *TypeDecl    { return m.Parent }

// TypeKind is the declaration keyword of a type.
type TypeKind uint8

const (
	Class TypeKind = iota + 1
	Struct
	Interface
	Enum
	Record
	RecordStruct
)

// ValueType reports whether declarations of this kind are value types.
func (k TypeKind) ValueType() bool {
	return k == Struct || k == Enum || k == RecordStruct
}

// TypeDecl is a class, struct, interface, enum or record declaration.
// Partial declarations appear once per part.
type TypeDecl struct {
	Kind         TypeKind
	Name         string
	TypeParams   []string
	Namespace    []string
	Modifiers    Modifiers
	ModifierList []Modifier
	Bases        []*TypeRef
	Fields       []*Field
	Properties   []*Property
	Methods      []*Method
	Events       []*Event
	Nested       []*TypeDecl
	Containing   *TypeDecl
	File         *File
	NameSpan     Span
	Span         Span
}

// Pos implements Node.
func (t *TypeDecl) Pos() Span { return t.Span }

// Using is a using directive.
type Using struct {
	Alias  string
	Name   []string
	Static bool
}

// Comment is a source comment.
type Comment struct {
	Text string
	Line int
	Span Span
}

// File is a parsed C# compilation unit.
type File struct {
	Path      string
	Source    []byte
	Usings    []Using
	Types     []*TypeDecl
	Comments  []Comment
	HasErrors bool
}

// Text returns the source text covered by s. Out-of-range spans yield "".
func (f *File) Text(s Span) string {
	if f == nil || s.Start < 0 || s.End > len(f.Source) || s.Start > s.End {
		return ""
	}
	return string(f.Source[s.Start:s.End])
}

// AllTypes returns every type declaration in the file, nested ones
// following their container.
func (f *File) AllTypes() []*TypeDecl {
	var out []*TypeDecl
	var walk func([]*TypeDecl)
	walk = func(ts []*TypeDecl) {
		for _, t := range ts {
			out = append(out, t)
			walk(t.Nested)
		}
	}
	walk(f.Types)
	return out
}
