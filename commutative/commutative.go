package commutative

import "github.com/Polqt/crdt/crdt"

// Commutative is an operation-based CRDT: instead of merging snapshots, it
// absorbs individual operations that are designed to commute with one
// another as long as they are delivered in a causally consistent order (see
// Log, which provides exactly that guarantee).
type Commutative[Op any] interface {
	// Redundant reports whether v is already implied by the receiver's
	// current state and can be skipped - e.g. a write causally dominated by
	// one already applied. Implementations that rely entirely on the Log's
	// exactly-once, gap-free delivery may simply return false.
	Redundant(v Versioned[Op]) bool

	// Apply absorbs v into the receiver's state, reporting whether
	// observable state changed.
	Apply(v Versioned[Op]) bool

	// Prune discards any bookkeeping causally dominated by timestamp,
	// reporting whether anything was discarded. Most op-based types need no
	// pruning and return false.
	Prune(timestamp crdt.VClock) bool
}
