package symbols

import (
	"slices"
	"strings"

	"github.com/phobologic/notifyguard/internal/syntax"
)

// ResolveType resolves a type reference written inside from. It returns nil
// for type parameters and for names that are not part of the compilation.
// Nullable and array markers are ignored; see Classify.
func (c *Compilation) ResolveType(ref *syntax.TypeRef, from *syntax.TypeDecl) *Type {
	if ref == nil || ref.Name == "" {
		return nil
	}
	if ref.Keyword {
		return c.types[keywordTypes[ref.Name]]
	}
	arity := len(ref.Args)
	name := metadataName(ref.Name, arity)

	var file *syntax.File
	var ns []string
	if from != nil {
		file = from.File
		ns = from.Namespace
	}

	if ref.Alias == "global" {
		return c.types[strings.Join(append(slices.Clone(ref.Qualifier), name), ".")]
	}

	if ref.Qualified() {
		return c.resolveQualified(ref.Qualifier, name, ns, file, from)
	}

	if from != nil {
		if isTypeParam(ref.Name, from) {
			return nil
		}
		if t := c.resolveNested(name, from); t != nil {
			return t
		}
	}
	for i := len(ns); i >= 0; i-- {
		if t := c.types[join(ns[:i], name)]; t != nil {
			return t
		}
	}
	if file != nil {
		for _, u := range file.Usings {
			if u.Alias == ref.Name && !u.Static {
				return c.types[strings.Join(u.Name, ".")]
			}
		}
		for _, u := range file.Usings {
			if u.Alias != "" || u.Static {
				continue
			}
			if t := c.types[join(u.Name, name)]; t != nil {
				return t
			}
		}
	}
	return nil
}

func (c *Compilation) resolveQualified(qual []string, name string, ns []string, file *syntax.File, from *syntax.TypeDecl) *Type {
	// A qualifier that is a using alias.
	if file != nil {
		for _, u := range file.Usings {
			if u.Alias == qual[0] && !u.Static {
				full := append(slices.Clone(u.Name), qual[1:]...)
				return c.types[join(full, name)]
			}
		}
	}
	// Relative to each enclosing namespace, innermost first.
	for i := len(ns); i >= 0; i-- {
		full := append(slices.Clone(ns[:i]), qual...)
		if t := c.types[join(full, name)]; t != nil {
			return t
		}
	}
	// A qualifier that names a type, e.g. Outer.Inner.
	if outer := c.ResolveType(&syntax.TypeRef{Qualifier: qual[:len(qual)-1], Name: qual[len(qual)-1]}, from); outer != nil {
		if t := outer.nested[name]; t != nil {
			return t
		}
	}
	return nil
}

func (c *Compilation) resolveNested(name string, from *syntax.TypeDecl) *Type {
	for td := from; td != nil; td = td.Containing {
		t := c.byDecl[td]
		if t == nil {
			continue
		}
		if n := t.nested[name]; n != nil {
			return n
		}
		for b := range t.BaseTypes() {
			if n := b.nested[name]; n != nil {
				return n
			}
		}
	}
	return nil
}

func isTypeParam(name string, from *syntax.TypeDecl) bool {
	for td := from; td != nil; td = td.Containing {
		if slices.Contains(td.TypeParams, name) {
			return true
		}
	}
	return false
}

func join(ns []string, name string) string {
	if len(ns) == 0 {
		return name
	}
	return strings.Join(ns, ".") + "." + name
}

// TypeClass is the coarse classification of a type used by equality rules.
type TypeClass uint8

const (
	// ClassUnknown covers type parameters and unresolved types.
	ClassUnknown TypeClass = iota
	ClassValue
	ClassReference
	// ClassNullableValue is Nullable<T> or T? over a value type.
	ClassNullableValue
)

// Classify classifies a type reference written inside from.
func (c *Compilation) Classify(ref *syntax.TypeRef, from *syntax.TypeDecl) TypeClass {
	if ref == nil {
		return ClassUnknown
	}
	if ref.Array {
		return ClassReference
	}
	if ref.Name == "Nullable" && len(ref.Args) == 1 {
		if c.Classify(ref.Args[0], from) == ClassValue {
			return ClassNullableValue
		}
		return ClassUnknown
	}
	t := c.ResolveType(ref, from)
	if t == nil {
		return ClassUnknown
	}
	if t.IsValueType() {
		if ref.Nullable {
			return ClassNullableValue
		}
		return ClassValue
	}
	if t.kind == syntax.Interface && !t.source {
		// Metadata interfaces may be implemented by structs.
		return ClassUnknown
	}
	return ClassReference
}
