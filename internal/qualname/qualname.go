// Package qualname matches bound and syntactic type references against
// well-known fully qualified names.
package qualname

import (
	"slices"
	"strings"

	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

// QualifiedType identifies a type by namespace parts and simple name.
// Nested types carry their containing type names in Namespace.
type QualifiedType struct {
	Namespace []string
	Name      string
}

// Parse splits a dotted name. A leading `global::` and a backtick arity
// suffix are dropped.
func Parse(full string) QualifiedType {
	full = strings.TrimPrefix(strings.TrimSpace(full), "global::")
	if full == "" {
		return QualifiedType{}
	}
	parts := strings.Split(full, ".")
	name := parts[len(parts)-1]
	if i := strings.IndexByte(name, '`'); i >= 0 {
		name = name[:i]
	}
	var ns []string
	if len(parts) > 1 {
		ns = parts[:len(parts)-1]
	}
	return QualifiedType{Namespace: ns, Name: name}
}

// String returns the dotted name.
func (q QualifiedType) String() string {
	if len(q.Namespace) == 0 {
		return q.Name
	}
	return strings.Join(q.Namespace, ".") + "." + q.Name
}

// IsZero reports whether q has no name.
func (q QualifiedType) IsZero() bool { return q.Name == "" }

// Matcher decides whether a reference denotes a qualified type.
type Matcher interface {
	Matches(q *QualifiedType) bool
}

// BoundType matches a bound type symbol. A nil Type matches only a nil target.
type BoundType struct{ Type *symbols.Type }

// Matches implements Matcher.
func (b BoundType) Matches(q *QualifiedType) bool {
	if b.Type == nil || q == nil {
		return b.Type == nil && q == nil
	}
	if b.Type.Name() != q.Name {
		return false
	}
	return slices.Equal(containerParts(b.Type), q.Namespace)
}

func containerParts(t *symbols.Type) []string {
	if c := t.ContainingType(); c != nil {
		return append(containerParts(c), c.Name())
	}
	if ns := t.Namespace(); ns != nil {
		return ns.Parts()
	}
	return nil
}

// TypeName matches a syntactic type reference without binding. Simple names
// match by text alone; qualified names must carry the full namespace.
// Keywords match the framework type they stand for. Array types never match
// their element type; a nullable annotation is ignored.
type TypeName struct{ Ref *syntax.TypeRef }

// Matches implements Matcher.
func (n TypeName) Matches(q *QualifiedType) bool {
	if n.Ref == nil || q == nil {
		return n.Ref == nil && q == nil
	}
	if n.Ref.Array {
		return false
	}
	if n.Ref.Keyword {
		full := symbols.KeywordType(n.Ref.Name)
		if full == "" {
			return false
		}
		k := Parse(full)
		return k.Name == q.Name && slices.Equal(k.Namespace, q.Namespace)
	}
	return matchName(n.Ref.Qualifier, n.Ref.Name, q)
}

// BaseType matches a base-list entry. Generic arguments are ignored.
type BaseType struct{ Ref *syntax.TypeRef }

// Matches implements Matcher.
func (b BaseType) Matches(q *QualifiedType) bool {
	if b.Ref == nil || q == nil {
		return b.Ref == nil && q == nil
	}
	return matchName(b.Ref.Qualifier, b.Ref.Name, q)
}

// AttributeName matches attribute syntax, where the `Attribute` suffix of
// the type name may be omitted.
type AttributeName struct{ Attr *syntax.Attribute }

// Matches implements Matcher.
func (a AttributeName) Matches(q *QualifiedType) bool {
	if a.Attr == nil || a.Attr.Name == nil || q == nil {
		return (a.Attr == nil || a.Attr.Name == nil) && q == nil
	}
	ref := a.Attr.Name
	if matchName(ref.Qualifier, ref.Name, q) {
		return true
	}
	if short, ok := strings.CutSuffix(q.Name, "Attribute"); ok && short != "" {
		return matchName(ref.Qualifier, ref.Name, &QualifiedType{Namespace: q.Namespace, Name: short})
	}
	return false
}

func matchName(qualifier []string, name string, q *QualifiedType) bool {
	if name != q.Name {
		return false
	}
	if len(qualifier) == 0 {
		return true
	}
	return slices.Equal(qualifier, q.Namespace)
}

// Any reports whether m matches one of qs.
func Any(m Matcher, qs []QualifiedType) bool {
	for i := range qs {
		if m.Matches(&qs[i]) {
			return true
		}
	}
	return false
}
