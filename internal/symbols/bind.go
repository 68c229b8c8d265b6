package symbols

import (
	"cmp"
	"slices"
	"strings"

	"github.com/phobologic/notifyguard/internal/syntax"
)

// MetadataType describes a type that is referenced but not declared in
// source, such as framework types. Names are dotted full names with an
// optional backtick arity suffix.
type MetadataType struct {
	FullName   string
	Kind       syntax.TypeKind
	Sealed     bool
	Base       string
	Interfaces []string
	// Events lists field-like events as name and delegate full name.
	Events []MetadataEvent
	// Notifying marks base classes that implement the notification pattern,
	// including a protected invoker.
	Notifying bool
}

// MetadataEvent is an event of a metadata type.
type MetadataEvent struct {
	Name string
	Type string
}

// keywordTypes maps C# type keywords to their framework types.
var keywordTypes = map[string]string{
	"object":  "System.Object",
	"string":  "System.String",
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"nint":    "System.IntPtr",
	"nuint":   "System.UIntPtr",
	"float":   "System.Single",
	"double":  "System.Double",
	"decimal": "System.Decimal",
}

// KeywordType returns the full name of the framework type a C# keyword
// stands for, or "".
func KeywordType(word string) string { return keywordTypes[word] }

// coreMetadata is always present; everything else comes from the caller.
var coreMetadata = []MetadataType{
	{FullName: "System.Object", Kind: syntax.Class},
	{FullName: "System.ValueType", Kind: syntax.Class, Base: "System.Object"},
	{FullName: "System.Enum", Kind: syntax.Class, Base: "System.ValueType"},
	{FullName: "System.String", Kind: syntax.Class, Sealed: true, Base: "System.Object"},
	{FullName: "System.Nullable`1", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Boolean", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Byte", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.SByte", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Char", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Int16", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.UInt16", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Int32", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.UInt32", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Int64", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.UInt64", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.IntPtr", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.UIntPtr", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Single", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Double", Kind: syntax.Struct, Base: "System.ValueType"},
	{FullName: "System.Decimal", Kind: syntax.Struct, Base: "System.ValueType"},
}

// Compilation is the bound view of a set of files. It is immutable after
// Bind returns and safe for concurrent use.
type Compilation struct {
	assembly *Assembly
	global   *Namespace
	spaces   map[string]*Namespace
	types    map[string]*Type
	files    []*syntax.File

	byDecl  map[*syntax.TypeDecl]*Type
	fields  map[*syntax.VarDecl]*Field
	props   map[*syntax.Property]*Property
	methods map[*syntax.Method]*Method
	events  map[*syntax.VarDecl]*Event
	params  map[*syntax.Parameter]*Parameter
}

// Bind builds a compilation over files. Metadata types describe referenced
// framework types; unknown references stay unresolved.
func Bind(files []*syntax.File, metadata ...MetadataType) *Compilation {
	c := &Compilation{
		assembly: &Assembly{name: "source"},
		spaces:   map[string]*Namespace{},
		types:    map[string]*Type{},
		files:    files,
		byDecl:   map[*syntax.TypeDecl]*Type{},
		fields:   map[*syntax.VarDecl]*Field{},
		props:    map[*syntax.Property]*Property{},
		methods:  map[*syntax.Method]*Method{},
		events:   map[*syntax.VarDecl]*Event{},
		params:   map[*syntax.Parameter]*Parameter{},
	}
	c.global = c.namespace(nil)

	all := append(slices.Clone(coreMetadata), metadata...)
	for _, m := range all {
		c.declareMetadata(m)
	}
	for _, m := range all {
		c.linkMetadata(m)
	}

	for _, f := range files {
		for _, td := range f.Types {
			c.declare(td, nil)
		}
	}
	for _, t := range c.sourceTypes() {
		c.resolveBases(t)
	}
	for _, t := range c.sourceTypes() {
		c.declareMembers(t)
	}
	return c
}

// Assembly returns the assembly symbol that contains all source namespaces.
func (c *Compilation) Assembly() *Assembly { return c.assembly }

// Files returns the bound files.
func (c *Compilation) Files() []*syntax.File { return c.files }

// Lookup returns the type with the given full name (backtick arity suffix
// for generic types), or nil.
func (c *Compilation) Lookup(fullName string) *Type { return c.types[fullName] }

// Types returns all source types ordered by full name.
func (c *Compilation) Types() []*Type { return c.sourceTypes() }

func (c *Compilation) sourceTypes() []*Type {
	var out []*Type
	for _, t := range c.types {
		if t.source {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *Type) int { return cmp.Compare(a.FullName(), b.FullName()) })
	return out
}

// TypeOf returns the type a declaration contributes to.
func (c *Compilation) TypeOf(td *syntax.TypeDecl) *Type { return c.byDecl[td] }

// FieldFor returns the field symbol of a field declarator.
func (c *Compilation) FieldFor(v *syntax.VarDecl) *Field { return c.fields[v] }

// PropertyFor returns the property symbol of a declaration.
func (c *Compilation) PropertyFor(p *syntax.Property) *Property { return c.props[p] }

// MethodFor returns the method symbol of a declaration.
func (c *Compilation) MethodFor(m *syntax.Method) *Method { return c.methods[m] }

// EventFor returns the event symbol of an event declarator.
func (c *Compilation) EventFor(v *syntax.VarDecl) *Event { return c.events[v] }

// ParameterFor returns the parameter symbol of a declaration.
func (c *Compilation) ParameterFor(p *syntax.Parameter) *Parameter { return c.params[p] }

func (c *Compilation) namespace(parts []string) *Namespace {
	key := strings.Join(parts, ".")
	if ns, ok := c.spaces[key]; ok {
		return ns
	}
	ns := &Namespace{parts: slices.Clone(parts), assembly: c.assembly}
	c.spaces[key] = ns
	return ns
}

func splitMetadataName(full string) (ns []string, name string, arity int) {
	parts := strings.Split(full, ".")
	name = parts[len(parts)-1]
	if i := strings.IndexByte(name, '`'); i >= 0 {
		for _, r := range name[i+1:] {
			arity = arity*10 + int(r-'0')
		}
		name = name[:i]
	}
	return parts[:len(parts)-1], name, arity
}

func (c *Compilation) declareMetadata(m MetadataType) {
	if _, ok := c.types[m.FullName]; ok || m.FullName == "" {
		return
	}
	ns, name, arity := splitMetadataName(m.FullName)
	t := &Type{
		name:      name,
		arity:     arity,
		ns:        c.namespace(ns),
		kind:      m.Kind,
		notifying: m.Notifying,
	}
	if t.kind == 0 {
		t.kind = syntax.Class
	}
	if m.Sealed {
		t.mods |= syntax.Sealed
	}
	t.mods |= syntax.Public
	c.types[m.FullName] = t
}

func (c *Compilation) linkMetadata(m MetadataType) {
	t := c.types[m.FullName]
	if t == nil || t.source {
		return
	}
	if b := c.types[m.Base]; b != nil && b != t {
		t.base = b
	} else if m.Base != "" && b == nil {
		t.unresolved = append(t.unresolved, typeRefFromName(m.Base))
	}
	for _, i := range m.Interfaces {
		if it := c.types[i]; it != nil {
			t.interfaces = append(t.interfaces, it)
		}
	}
	for _, e := range m.Events {
		t.events = append(t.events, &Event{
			member: member{name: e.Name, owner: t, access: AccessPublic},
			typ:    typeRefFromName(e.Type),
		})
	}
}

// typeRefFromName builds a qualified reference from a dotted metadata name.
func typeRefFromName(full string) *syntax.TypeRef {
	ns, name, _ := splitMetadataName(full)
	return &syntax.TypeRef{Qualifier: ns, Name: name}
}

func (c *Compilation) declare(td *syntax.TypeDecl, outer *Type) {
	if td.Name == "" {
		return
	}
	arity := len(td.TypeParams)
	var t *Type
	if outer != nil {
		key := metadataName(td.Name, arity)
		t = outer.nested[key]
		if t == nil {
			t = &Type{name: td.Name, arity: arity, ns: outer.ns, containing: outer, kind: td.Kind, source: true}
			if outer.nested == nil {
				outer.nested = map[string]*Type{}
			}
			outer.nested[key] = t
			c.types[t.FullName()] = t
		}
	} else {
		ns := c.namespace(td.Namespace)
		candidate := &Type{name: td.Name, arity: arity, ns: ns}
		full := candidate.FullName()
		t = c.types[full]
		if t == nil || !t.source {
			// Source declarations replace metadata stand-ins of the same name.
			t = candidate
			t.kind = td.Kind
			t.source = true
			c.types[full] = t
		}
	}
	t.decls = append(t.decls, td)
	t.mods |= td.Modifiers
	c.byDecl[td] = t
	for _, n := range td.Nested {
		c.declare(n, t)
	}
}

func (c *Compilation) resolveBases(t *Type) {
	seen := map[*Type]bool{}
	for _, td := range t.decls {
		for _, ref := range td.Bases {
			bt := c.ResolveType(ref, td)
			switch {
			case bt == nil:
				t.unresolved = append(t.unresolved, ref)
			case seen[bt] || bt == t:
			case bt.kind == syntax.Interface:
				seen[bt] = true
				t.interfaces = append(t.interfaces, bt)
			case t.base == nil && (t.kind == syntax.Class || t.kind == syntax.Record):
				seen[bt] = true
				t.base = bt
			}
		}
	}
	if t.base != nil || len(t.unresolvedClassBases()) > 0 {
		return
	}
	switch t.kind {
	case syntax.Class, syntax.Record:
		t.base = c.types["System.Object"]
	case syntax.Struct, syntax.RecordStruct:
		t.base = c.types["System.ValueType"]
	case syntax.Enum:
		t.base = c.types["System.Enum"]
	}
}

// unresolvedClassBases returns unresolved base entries that may name a base
// class. By convention interface names start with "I" and an uppercase letter.
func (t *Type) unresolvedClassBases() []*syntax.TypeRef {
	if t.kind != syntax.Class && t.kind != syntax.Record {
		return nil
	}
	var out []*syntax.TypeRef
	for _, ref := range t.unresolved {
		if !looksLikeInterface(ref.Name) {
			out = append(out, ref)
		}
	}
	return out
}

func looksLikeInterface(name string) bool {
	return len(name) > 1 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func (c *Compilation) declareMembers(t *Type) {
	defAccess := AccessPrivate
	if t.kind == syntax.Interface {
		defAccess = AccessPublic
	}
	for _, td := range t.decls {
		for _, fd := range td.Fields {
			for _, v := range fd.Vars {
				f := &Field{
					member: member{name: v.Name, owner: t, mods: fd.Modifiers, access: accessibility(fd.Modifiers, defAccess)},
					decl:   fd,
					v:      v,
				}
				t.fields = append(t.fields, f)
				c.fields[v] = f
			}
		}
		for _, pd := range td.Properties {
			p := &Property{
				member: member{name: pd.Name, owner: t, mods: pd.Modifiers, access: accessibility(pd.Modifiers, defAccess)},
				decl:   pd,
			}
			if pd.Set != nil {
				p.value = &Parameter{name: "value", owner: p, typ: pd.Type, implicit: true}
			}
			t.props = append(t.props, p)
			c.props[pd] = p
		}
		for _, md := range td.Methods {
			m := &Method{
				member: member{name: md.Name, owner: t, mods: md.Modifiers, access: accessibility(md.Modifiers, defAccess)},
				decl:   md,
			}
			for i, pd := range md.Params {
				p := &Parameter{name: pd.Name, owner: m, decl: pd, typ: pd.Type, ordinal: i}
				m.params = append(m.params, p)
				c.params[pd] = p
			}
			t.methods = append(t.methods, m)
			c.methods[md] = m
		}
		for _, ed := range td.Events {
			for _, v := range ed.Vars {
				e := &Event{
					member: member{name: v.Name, owner: t, mods: ed.Modifiers, access: accessibility(ed.Modifiers, defAccess)},
					decl:   ed,
					v:      v,
					typ:    ed.Type,
				}
				t.events = append(t.events, e)
				c.events[v] = e
			}
		}
	}
}
