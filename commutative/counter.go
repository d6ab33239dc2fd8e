package commutative

import "github.com/Polqt/crdt/crdt"

// Counter is an operation-based counter: every delivered operation is a
// signed delta, applied exactly once thanks to the Log's sequencing
// guarantee, so no redundancy bookkeeping is needed beyond that.
type Counter struct {
	value int64
}

// NewCounter returns a counter at zero.
func NewCounter() Counter { return Counter{} }

// Value returns the counter's current total.
func (c Counter) Value() int64 { return c.value }

// Redundant always reports false: the Log already guarantees each
// operation is delivered exactly once per replica, in causal order, so a
// delta is never redundant once it reaches Apply.
func (c Counter) Redundant(v Versioned[int64]) bool { return false }

// Apply adds v's delta to the counter.
func (c *Counter) Apply(v Versioned[int64]) bool {
	if v.Value == 0 {
		return false
	}
	c.value += v.Value
	return true
}

// Prune is a no-op: a plain counter carries no per-origin state to expire.
func (c *Counter) Prune(timestamp crdt.VClock) bool { return false }
