// Package comparers provides declaration-identity equality for symbols.
//
// Two symbols compare equal when they denote the same declared entity, even
// when they were reached through different binding paths. The comparer for
// each symbol kind is built once and shared read-only by all callers.
package comparers

import (
	"strconv"
	"sync"

	"github.com/phobologic/notifyguard/internal/symbols"
)

// Key is the comparable identity of a symbol.
type Key struct {
	Kind      symbols.Kind
	Container string
	Name      string
	Signature string
	// ref holds the symbol itself for kinds without a declaration identity.
	ref symbols.Symbol
}

// Comparer computes identities for one symbol kind.
type Comparer struct {
	kind symbols.Kind
	key  func(symbols.Symbol) Key
}

// Kind returns the symbol kind the comparer was built for.
func (c Comparer) Kind() symbols.Kind { return c.kind }

// Key returns the identity of s. Nil symbols have the zero key.
func (c Comparer) Key(s symbols.Symbol) Key {
	if s == nil {
		return Key{}
	}
	return c.key(s)
}

// Equal reports whether a and b denote the same declaration. Two nil
// symbols are equal; nil and non-nil are not.
func (c Comparer) Equal(a, b symbols.Symbol) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return c.Key(a) == c.Key(b)
}

var table = sync.OnceValue(func() map[symbols.Kind]Comparer {
	m := map[symbols.Kind]Comparer{}
	for _, k := range []symbols.Kind{
		symbols.KindUnknown,
		symbols.KindAssembly,
		symbols.KindNamespace,
		symbols.KindType,
		symbols.KindField,
		symbols.KindProperty,
		symbols.KindMethod,
		symbols.KindEvent,
		symbols.KindParameter,
		symbols.KindLocal,
	} {
		m[k] = Comparer{kind: k, key: keyFunc(k)}
	}
	return m
})

// For returns the comparer for kind. Kinds outside the known set compare
// by symbol identity.
func For(kind symbols.Kind) Comparer {
	if c, ok := table()[kind]; ok {
		return c
	}
	return Comparer{kind: kind, key: byReference}
}

// Of returns the comparer matching the kind of s.
func Of(s symbols.Symbol) Comparer {
	if s == nil {
		return For(symbols.KindUnknown)
	}
	return For(s.Kind())
}

// Equal compares two symbols of any kind.
func Equal(a, b symbols.Symbol) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return Of(a).Equal(a, b)
}

func keyFunc(kind symbols.Kind) func(symbols.Symbol) Key {
	switch kind {
	case symbols.KindAssembly:
		return func(s symbols.Symbol) Key {
			return Key{Kind: kind, Name: s.Name()}
		}
	case symbols.KindNamespace:
		return func(s symbols.Symbol) Key {
			ns, ok := s.(*symbols.Namespace)
			if !ok {
				return byReference(s)
			}
			return Key{Kind: kind, Name: ns.FullName()}
		}
	case symbols.KindType:
		return func(s symbols.Symbol) Key {
			t, ok := s.(*symbols.Type)
			if !ok {
				return byReference(s)
			}
			return Key{Kind: kind, Name: t.FullName()}
		}
	case symbols.KindField, symbols.KindProperty, symbols.KindEvent:
		return func(s symbols.Symbol) Key {
			return Key{Kind: kind, Container: containerName(s.Container()), Name: s.Name()}
		}
	case symbols.KindMethod:
		return func(s symbols.Symbol) Key {
			m, ok := s.(*symbols.Method)
			if !ok {
				return byReference(s)
			}
			return Key{Kind: kind, Container: containerName(m.Owner()), Name: m.Name(), Signature: m.Signature()}
		}
	case symbols.KindParameter:
		return func(s symbols.Symbol) Key {
			p, ok := s.(*symbols.Parameter)
			if !ok {
				return byReference(s)
			}
			owner := ownerKey(p.Container())
			return Key{
				Kind:      kind,
				Container: owner.Container + "." + owner.Name + owner.Signature,
				Name:      p.Name(),
				Signature: strconv.Itoa(p.Ordinal()),
			}
		}
	case symbols.KindLocal:
		return func(s symbols.Symbol) Key {
			l, ok := s.(*symbols.Local)
			if !ok {
				return byReference(s)
			}
			owner := ownerKey(l.Container())
			pos := ""
			if d := l.Decl(); d != nil {
				pos = strconv.Itoa(d.Span.Start)
			}
			return Key{
				Kind:      kind,
				Container: owner.Container + "." + owner.Name + owner.Signature,
				Name:      l.Name(),
				Signature: pos,
			}
		}
	}
	return byReference
}

func byReference(s symbols.Symbol) Key {
	return Key{Kind: s.Kind(), Name: s.Name(), ref: s}
}

// ownerKey computes the key of a parameter's or local's owner without
// going through the shared table, which is built from these functions.
func ownerKey(s symbols.Symbol) Key {
	if s == nil {
		return Key{}
	}
	return keyFunc(s.Kind())(s)
}

func containerName(s symbols.Symbol) string {
	switch s := s.(type) {
	case *symbols.Type:
		return s.FullName()
	case *symbols.Namespace:
		return s.FullName()
	case nil:
		return ""
	default:
		return s.Name()
	}
}
