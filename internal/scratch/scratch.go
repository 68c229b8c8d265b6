// Package scratch lends reusable visited sets to analyses that walk
// delegation chains.
//
// A lease is owned by exactly one call stack. It is cleared when released
// and checked for emptiness when handed out again:
//
//	visited := scratch.Visited()
//	defer visited.Release()
package scratch

import (
	"sync"

	"github.com/phobologic/notifyguard/internal/comparers"
	"github.com/phobologic/notifyguard/internal/symbols"
)

var pool = sync.Pool{New: func() any { return new(comparers.Set) }}

// Lease is a borrowed visited set.
type Lease struct {
	set *comparers.Set
}

// Visited borrows an empty set from the pool.
func Visited() *Lease {
	s := pool.Get().(*comparers.Set)
	if s.Len() != 0 {
		panic("scratch: pooled set was returned without being cleared")
	}
	return &Lease{set: s}
}

// Add inserts sym and reports whether it was not yet visited.
func (l *Lease) Add(sym symbols.Symbol) bool { return l.live().Add(sym) }

// Contains reports whether sym was visited.
func (l *Lease) Contains(sym symbols.Symbol) bool { return l.live().Contains(sym) }

// Len returns the number of visited symbols.
func (l *Lease) Len() int { return l.live().Len() }

// Items returns the visited symbols in visiting order.
func (l *Lease) Items() []symbols.Symbol { return l.live().Items() }

// Release clears the set and returns it to the pool. Calling Release more
// than once is a no-op.
func (l *Lease) Release() {
	if l.set == nil {
		return
	}
	l.set.Clear()
	pool.Put(l.set)
	l.set = nil
}

func (l *Lease) live() *comparers.Set {
	if l.set == nil {
		panic("scratch: use of released lease")
	}
	return l.set
}
