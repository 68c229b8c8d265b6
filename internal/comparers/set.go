package comparers

import "github.com/phobologic/notifyguard/internal/symbols"

// Set is a set of symbols deduplicated by declaration identity. The zero
// value is ready to use.
type Set struct {
	items map[Key]symbols.Symbol
	order []Key
}

// Add inserts s and reports whether it was not already present.
// Nil symbols are never added.
func (s *Set) Add(sym symbols.Symbol) bool {
	if sym == nil {
		return false
	}
	k := Of(sym).Key(sym)
	if _, ok := s.items[k]; ok {
		return false
	}
	if s.items == nil {
		s.items = map[Key]symbols.Symbol{}
	}
	s.items[k] = sym
	s.order = append(s.order, k)
	return true
}

// Contains reports whether a symbol with the same identity was added.
func (s *Set) Contains(sym symbols.Symbol) bool {
	if sym == nil {
		return false
	}
	_, ok := s.items[Of(sym).Key(sym)]
	return ok
}

// Len returns the number of distinct symbols.
func (s *Set) Len() int { return len(s.order) }

// Items returns the symbols in insertion order.
func (s *Set) Items() []symbols.Symbol {
	out := make([]symbols.Symbol, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Clear removes all symbols, keeping allocated storage.
func (s *Set) Clear() {
	clear(s.items)
	s.order = s.order[:0]
}
