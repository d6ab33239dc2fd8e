// Package crdt provides conflict-free replicated data types: logical-time
// primitives (VClock, Dot, DVV, MClock, HLC) and the convergent (state-based)
// CRDT family built on top of them (GCounter, PNCounter, BCounter,
// LWWRegister, MVRegister, ORSet, ORMap).
//
// See package commutative for the operation-based family.
package crdt

// Convergent is a join-semilattice: merging two instances produces the same
// result regardless of order or repetition.
//
// Merge is expected to be:
//   - idempotent: a.Merge(a) leaves a unchanged
//   - commutative: a.Merge(b) and b.Merge(a) converge to the same value
//   - associative: (a.Merge(b)).Merge(c) == a.Merge(b.Merge(c))
//
// Merge reports whether the receiver's observable state changed.
type Convergent[T any] interface {
	Merge(other *T) bool
}

// DeltaConvergent is satisfied by convergent CRDTs that can hand over a
// minimal "what changed since last time" delta instead of their whole state.
//
// Delta extraction is destructive: Delta() moves the accumulated buffer out
// of the receiver. The receiver keeps its full state; only the stash of
// recent changes is drained.
type DeltaConvergent[D any] interface {
	Delta() (D, bool)
	MergeDelta(other *D) bool
}

// Materialize exposes a user-facing view of a CRDT, stripped of replica and
// causality metadata. Materialize never mutates.
type Materialize[V any] interface {
	Value() V
}

// MergeOption merges the convergent lattice embedded in an Option-like pair
// of (value, present) into dst, following the rule None⊔x=x, Some(a)⊔Some(b)
// = Some(a.Merge(b)). Returns whether dst changed.
//
// Go has no Option[T] in the standard library; callers represent "absent" by
// a nil pointer or a boolean flag. This helper takes the latter shape since
// that's what LWWRegister and BCounter's embedded deltas use.
func MergeOption[T any, PT interface {
	*T
	Convergent[T]
}](dst *T, dstPresent *bool, src *T, srcPresent bool) bool {
	if !srcPresent {
		return false
	}
	if !*dstPresent {
		*dst = *src
		*dstPresent = true
		return true
	}
	return PT(dst).Merge(src)
}
