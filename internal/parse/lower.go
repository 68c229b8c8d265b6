package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/notifyguard/internal/lang"
	"github.com/phobologic/notifyguard/internal/syntax"
)

var typeKinds = map[string]syntax.TypeKind{
	"class_declaration":         syntax.Class,
	"struct_declaration":        syntax.Struct,
	"interface_declaration":     syntax.Interface,
	"enum_declaration":          syntax.Enum,
	"record_declaration":        syntax.Record,
	"record_struct_declaration": syntax.RecordStruct,
}

// lowerer converts one tree-sitter tree into syntax nodes.
type lowerer struct {
	src  []byte
	file *syntax.File
	// receiver is the lowered target of the innermost `x?.` being lowered;
	// member_binding_expression nodes attach to it.
	receiver syntax.Expr
}

func (l *lowerer) text(n *sitter.Node) string { return lang.NodeText(n, l.src) }

func (l *lowerer) unit(root *sitter.Node) {
	var ns []string
	for _, child := range lang.NamedChildren(root) {
		switch child.Type() {
		case "using_directive":
			l.using(child)
		case "namespace_declaration":
			l.namespace(child, nil)
		case "file_scoped_namespace_declaration":
			// Older grammars end the node after the name and leave the
			// members as siblings; newer ones nest them.
			ns = l.dotted(lang.Field(child, "name"))
			l.namespaceBody(child, ns)
		case "global_statement":
		default:
			if td := l.typeDecl(child, ns, nil); td != nil {
				l.file.Types = append(l.file.Types, td)
			}
		}
	}
}

func (l *lowerer) namespace(n *sitter.Node, outer []string) {
	parts := append(append([]string(nil), outer...), l.dotted(lang.Field(n, "name"))...)
	body := lang.Field(n, "body")
	if body == nil {
		body = lang.ChildOfType(n, "declaration_list")
	}
	l.namespaceBody(body, parts)
}

func (l *lowerer) namespaceBody(body *sitter.Node, ns []string) {
	for _, child := range lang.NamedChildren(body) {
		switch child.Type() {
		case "using_directive":
			l.using(child)
		case "namespace_declaration":
			l.namespace(child, ns)
		default:
			if td := l.typeDecl(child, ns, nil); td != nil {
				l.file.Types = append(l.file.Types, td)
			}
		}
	}
}

// dotted splits a (possibly qualified) name node into its identifiers.
func (l *lowerer) dotted(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, p := range strings.Split(l.text(n), ".") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l *lowerer) using(n *sitter.Node) {
	var u syntax.Using
	var names []*sitter.Node
	sawEquals := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			u.Static = true
		case "=":
			sawEquals = true
		case "name_equals":
			if id := lang.ChildOfType(c, "identifier"); id != nil {
				u.Alias = l.text(id)
			}
		case "identifier", "qualified_name", "generic_name", "alias_qualified_name":
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return
	}
	if sawEquals && len(names) > 1 {
		u.Alias = l.text(names[0])
	}
	u.Name = l.dotted(names[len(names)-1])
	if len(u.Name) > 0 {
		last := u.Name[len(u.Name)-1]
		if i := strings.Index(last, "::"); i >= 0 {
			u.Name[len(u.Name)-1] = last[i+2:]
		}
		if i := strings.Index(u.Name[0], "::"); i >= 0 {
			u.Name[0] = u.Name[0][i+2:]
		}
	}
	l.file.Usings = append(l.file.Usings, u)
}

func (l *lowerer) typeDecl(n *sitter.Node, ns []string, outer *syntax.TypeDecl) *syntax.TypeDecl {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return nil
	}
	if kind == syntax.Record && lang.ChildOfType(n, "struct") != nil {
		kind = syntax.RecordStruct
	}
	td := &syntax.TypeDecl{
		Kind:       kind,
		Namespace:  ns,
		Containing: outer,
		File:       l.file,
		Span:       span(n),
	}
	if name := lang.Field(n, "name"); name != nil {
		td.Name = l.text(name)
		td.NameSpan = span(name)
	}
	td.Modifiers, td.ModifierList = l.modifiers(n)
	td.TypeParams = l.typeParams(n)

	bases := lang.Field(n, "bases")
	if bases == nil {
		bases = lang.ChildOfType(n, "base_list")
	}
	for _, b := range lang.NamedChildren(bases) {
		switch b.Type() {
		case "primary_constructor_base_type":
			if ns := lang.NamedChildren(b); len(ns) > 0 {
				td.Bases = append(td.Bases, l.typeRef(ns[0]))
			}
		case "argument_list":
		default:
			td.Bases = append(td.Bases, l.typeRef(b))
		}
	}

	body := lang.Field(n, "body")
	if body == nil {
		body = lang.ChildOfType(n, "declaration_list")
	}
	if body != nil && kind != syntax.Enum {
		l.members(body, td)
	}
	return td
}

func (l *lowerer) typeParams(n *sitter.Node) []string {
	list := lang.Field(n, "type_parameters")
	if list == nil {
		list = lang.ChildOfType(n, "type_parameter_list")
	}
	var out []string
	for _, tp := range lang.ChildrenOfType(list, "type_parameter") {
		if id := lang.Field(tp, "name"); id != nil {
			out = append(out, l.text(id))
		} else if id := lang.ChildOfType(tp, "identifier"); id != nil {
			out = append(out, l.text(id))
		} else {
			out = append(out, l.text(tp))
		}
	}
	return out
}

func (l *lowerer) members(body *sitter.Node, td *syntax.TypeDecl) {
	for _, c := range lang.NamedChildren(body) {
		switch c.Type() {
		case "field_declaration":
			td.Fields = append(td.Fields, l.field(c, td))
		case "property_declaration":
			td.Properties = append(td.Properties, l.property(c, td))
		case "method_declaration":
			td.Methods = append(td.Methods, l.method(c, td))
		case "event_field_declaration":
			td.Events = append(td.Events, l.eventField(c, td))
		case "event_declaration":
			td.Events = append(td.Events, l.eventDecl(c, td))
		default:
			if nested := l.typeDecl(c, td.Namespace, td); nested != nil {
				td.Nested = append(td.Nested, nested)
			}
		}
	}
}

func (l *lowerer) modifiers(n *sitter.Node) (syntax.Modifiers, []syntax.Modifier) {
	var mods syntax.Modifiers
	var list []syntax.Modifier
	for _, m := range lang.ChildrenOfType(n, "modifier") {
		word := l.text(m)
		mods |= syntax.ModifierFor(word)
		list = append(list, syntax.Modifier{Word: word, Span: span(m)})
	}
	return mods, list
}

func (l *lowerer) attributes(n *sitter.Node) []*syntax.Attribute {
	var out []*syntax.Attribute
	for _, list := range lang.ChildrenOfType(n, "attribute_list") {
		for _, a := range lang.ChildrenOfType(list, "attribute") {
			attr := &syntax.Attribute{Span: span(a)}
			name := lang.Field(a, "name")
			if name == nil {
				if ns := lang.NamedChildren(a); len(ns) > 0 {
					name = ns[0]
				}
			}
			if name != nil {
				attr.Name = l.typeRef(name)
			}
			if args := lang.ChildOfType(a, "attribute_argument_list"); args != nil {
				for _, arg := range lang.ChildrenOfType(args, "attribute_argument") {
					ns := lang.NamedChildren(arg)
					if len(ns) == 0 {
						continue
					}
					attr.Args = append(attr.Args, &syntax.Arg{
						Value: l.expr(ns[len(ns)-1]),
						Span:  span(arg),
					})
				}
			}
			out = append(out, attr)
		}
	}
	return out
}

// declarators lowers the variable_declaration of a field or event field.
func (l *lowerer) declarators(n *sitter.Node) (*syntax.TypeRef, []*syntax.VarDecl) {
	vd := lang.ChildOfType(n, "variable_declaration")
	if vd == nil {
		return nil, nil
	}
	var typ *syntax.TypeRef
	if t := lang.Field(vd, "type"); t != nil {
		typ = l.typeRef(t)
	}
	var vars []*syntax.VarDecl
	for _, d := range lang.ChildrenOfType(vd, "variable_declarator") {
		v := &syntax.VarDecl{Span: span(d)}
		name := lang.Field(d, "name")
		if name == nil {
			name = lang.ChildOfType(d, "identifier")
		}
		v.Name = l.text(name)
		v.Init = l.initializer(d)
		vars = append(vars, v)
	}
	return typ, vars
}

// initializer returns the expression after `=` in a declarator, parameter
// or property, covering both the equals_value_clause and inline forms.
func (l *lowerer) initializer(n *sitter.Node) syntax.Expr {
	if ev := lang.ChildOfType(n, "equals_value_clause"); ev != nil {
		if ns := lang.NamedChildren(ev); len(ns) > 0 {
			return l.expr(ns[len(ns)-1])
		}
		return nil
	}
	seen := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "=" {
			seen = true
			continue
		}
		if seen && c.IsNamed() && !lang.IsTrivia(c) {
			return l.expr(c)
		}
	}
	return nil
}

func (l *lowerer) field(n *sitter.Node, td *syntax.TypeDecl) *syntax.Field {
	f := &syntax.Field{Parent: td, Span: span(n)}
	f.Modifiers, f.ModifierList = l.modifiers(n)
	f.Type, f.Vars = l.declarators(n)
	return f
}

func (l *lowerer) eventField(n *sitter.Node, td *syntax.TypeDecl) *syntax.Event {
	e := &syntax.Event{Parent: td, Span: span(n)}
	e.Modifiers, e.ModifierList = l.modifiers(n)
	e.Type, e.Vars = l.declarators(n)
	return e
}

func (l *lowerer) eventDecl(n *sitter.Node, td *syntax.TypeDecl) *syntax.Event {
	e := &syntax.Event{Parent: td, Span: span(n)}
	e.Modifiers, e.ModifierList = l.modifiers(n)
	if t := lang.Field(n, "type"); t != nil {
		e.Type = l.typeRef(t)
	}
	if name := lang.Field(n, "name"); name != nil {
		e.Vars = []*syntax.VarDecl{{Name: l.text(name), Span: span(name)}}
	}
	e.Accessors = l.accessors(n)
	return e
}

func (l *lowerer) accessors(n *sitter.Node) []*syntax.Accessor {
	list := lang.Field(n, "accessors")
	if list == nil {
		list = lang.ChildOfType(n, "accessor_list")
	}
	var out []*syntax.Accessor
	for _, a := range lang.ChildrenOfType(list, "accessor_declaration") {
		acc := &syntax.Accessor{Span: span(a)}
		acc.Modifiers, _ = l.modifiers(a)
		acc.Kind = accessorKind(l.accessorKeyword(a))
		acc.Body = l.body(a)
		out = append(out, acc)
	}
	return out
}

func (l *lowerer) accessorKeyword(a *sitter.Node) string {
	if name := lang.Field(a, "name"); name != nil {
		return l.text(name)
	}
	for i := 0; i < int(a.ChildCount()); i++ {
		switch t := a.Child(i).Type(); t {
		case "get", "set", "init", "add", "remove":
			return t
		}
	}
	return ""
}

func accessorKind(word string) syntax.AccessorKind {
	switch word {
	case "get":
		return syntax.Get
	case "set":
		return syntax.Set
	case "init":
		return syntax.Init
	case "add":
		return syntax.Add
	case "remove":
		return syntax.Remove
	}
	return 0
}

func (l *lowerer) body(n *sitter.Node) syntax.Body {
	b := lang.Field(n, "body")
	if b == nil {
		b = lang.ChildOfType(n, "block", "arrow_expression_clause")
	}
	if b == nil {
		return syntax.Body{}
	}
	switch b.Type() {
	case "block":
		return syntax.Body{Block: l.block(b)}
	case "arrow_expression_clause":
		return syntax.Body{Expr: l.arrow(b)}
	}
	return syntax.Body{}
}

func (l *lowerer) arrow(n *sitter.Node) syntax.Expr {
	if ns := lang.NamedChildren(n); len(ns) > 0 {
		return l.expr(ns[0])
	}
	return nil
}

func (l *lowerer) property(n *sitter.Node, td *syntax.TypeDecl) *syntax.Property {
	p := &syntax.Property{Parent: td, Span: span(n)}
	p.Modifiers, p.ModifierList = l.modifiers(n)
	p.Attributes = l.attributes(n)
	if t := lang.Field(n, "type"); t != nil {
		p.Type = l.typeRef(t)
	}
	if name := lang.Field(n, "name"); name != nil {
		p.Name = l.text(name)
		p.NameSpan = span(name)
	}
	for _, acc := range l.accessors(n) {
		switch acc.Kind {
		case syntax.Get:
			p.Get = acc
		case syntax.Set, syntax.Init:
			p.Set = acc
		}
	}

	// `value` holds either the arrow clause or the initializer depending on
	// the grammar revision.
	if v := lang.Field(n, "value"); v != nil && v.Type() != "arrow_expression_clause" {
		p.Initializer = l.expr(v)
	}
	if arrow := lang.ChildOfType(n, "arrow_expression_clause"); arrow != nil {
		p.ExprBodied = true
		p.Get = &syntax.Accessor{
			Kind: syntax.Get,
			Body: syntax.Body{Expr: l.arrow(arrow)},
			Span: span(arrow),
		}
	} else if p.Initializer == nil {
		p.Initializer = l.initializer(n)
	}
	return p
}

func (l *lowerer) method(n *sitter.Node, td *syntax.TypeDecl) *syntax.Method {
	m := &syntax.Method{Parent: td, Span: span(n)}
	m.Modifiers, m.ModifierList = l.modifiers(n)
	m.Attributes = l.attributes(n)
	if t := lang.Field(n, "returns", "type"); t != nil {
		m.Return = l.typeRef(t)
	}
	if name := lang.Field(n, "name"); name != nil {
		m.Name = l.text(name)
		m.NameSpan = span(name)
	}
	m.TypeParams = l.typeParams(n)
	params := lang.Field(n, "parameters")
	if params == nil {
		params = lang.ChildOfType(n, "parameter_list")
	}
	for _, pn := range lang.ChildrenOfType(params, "parameter") {
		m.Params = append(m.Params, l.parameter(pn))
	}
	m.Body = l.body(n)
	return m
}

func (l *lowerer) parameter(n *sitter.Node) *syntax.Parameter {
	p := &syntax.Parameter{Span: span(n)}
	p.Attributes = l.attributes(n)
	if t := lang.Field(n, "type"); t != nil {
		p.Type = l.typeRef(t)
	}
	if name := lang.Field(n, "name"); name != nil {
		p.Name = l.text(name)
		p.NameSpan = span(name)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		word := c.Type()
		if word == "parameter_modifier" || word == "modifier" {
			word = l.text(c)
		}
		if k, ok := refKind(word); ok {
			p.Ref = k
		}
	}
	p.Default = l.initializer(n)
	return p
}

func refKind(word string) (syntax.RefKind, bool) {
	switch word {
	case "ref":
		return syntax.ByRef, true
	case "out":
		return syntax.ByOut, true
	case "in":
		return syntax.ByIn, true
	}
	return syntax.ByValue, false
}
