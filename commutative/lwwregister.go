package commutative

import "github.com/Polqt/crdt/crdt"

// LWWRegister is an operation-based last-write-wins register: it holds the
// single Versioned write with the greatest Compare order seen so far.
type LWWRegister[T any] struct {
	current Versioned[T]
	present bool
}

// NewLWWRegister returns an empty register.
func NewLWWRegister[T any]() LWWRegister[T] { return LWWRegister[T]{} }

// Value returns the currently winning value, if any.
func (r LWWRegister[T]) Value() (T, bool) {
	if !r.present {
		var zero T
		return zero, false
	}
	return r.current.Value, true
}

// Redundant reports whether v is already dominated by the register's
// current write under Compare - applying it would be a no-op.
func (r LWWRegister[T]) Redundant(v Versioned[T]) bool {
	return r.present && Compare(v, r.current) <= 0
}

// Apply adopts v if it outranks the currently held write under Compare.
func (r *LWWRegister[T]) Apply(v Versioned[T]) bool {
	if r.Redundant(v) {
		return false
	}
	r.current = v
	r.present = true
	return true
}

// Prune is a no-op: a single-slot register carries nothing to expire.
func (r *LWWRegister[T]) Prune(timestamp crdt.VClock) bool { return false }
