// Package commutative provides the operation-based (commutative) CRDT
// family: causal envelopes carrying individual operations, a total order
// over them usable for deterministic replay, and op-based Counter,
// LWWRegister and MVRegister types built on top.
//
// Where package crdt ships full- or delta-state replicas that converge by
// merging snapshots, this package ships individual operations that
// converge by being applied in any causally-consistent order - the
// operations themselves must commute, hence the package name.
package commutative

import "github.com/Polqt/crdt/crdt"

// Versioned stamps a value with everything needed to place it in the
// global total order: the causal history it was produced under (VecTime),
// a physical/logical hybrid timestamp for tie-breaking concurrent writes
// (SysTime), and the replica that produced it (Origin, the final
// tie-breaker when both VecTime and SysTime coincide).
type Versioned[T any] struct {
	Origin  crdt.ReplicaID
	SysTime crdt.HLC
	VecTime crdt.VClock
	Value   T
}

// NewVersioned stamps value as having been produced by origin, causally
// after vecTime, at sysTime.
func NewVersioned[T any](origin crdt.ReplicaID, sysTime crdt.HLC, vecTime crdt.VClock, value T) Versioned[T] {
	return Versioned[T]{Origin: origin, SysTime: sysTime, VecTime: vecTime, Value: value}
}

// Compare orders two Versioned values: by causal order when they are
// causally comparable, else by sys_time, else by origin ascending. Returns
// -1, 0 or 1 the way a standard three-way comparator does; this is a total
// order (two concurrent writes with equal sys_time and equal origin cannot
// occur, since origin uniquely identifies the writer).
func Compare[T any](a, b Versioned[T]) int {
	// A causal Equal only means the two vector clocks happen to carry the
	// same counts - it does not mean a and b are the same write. Only a
	// strict causal Less/Greater is conclusive; an Equal (or concurrent)
	// VecTime still falls through to the SysTime/Origin tie-break below.
	if ord, ok := a.VecTime.PartialCmp(b.VecTime); ok && ord != crdt.Equal {
		return int(ord)
	}
	switch {
	case a.SysTime < b.SysTime:
		return -1
	case a.SysTime > b.SysTime:
		return 1
	case a.Origin < b.Origin:
		return -1
	case a.Origin > b.Origin:
		return 1
	default:
		return 0
	}
}

// Event is the replicated wire form of a Versioned[T]: it additionally
// carries the sequence numbers a Log uses to detect gaps and reorder
// concurrent deliveries into a per-origin causal stream.
type Event[T any] struct {
	Origin    crdt.ReplicaID
	OriginSeq uint64
	LocalSeq  uint64
	SysTime   crdt.HLC
	VecTime   crdt.VClock
	Value     T
}

// Versioned strips an Event down to the Versioned it carries, discarding
// the sequencing metadata a Log needs but a Commutative implementation does
// not.
func (e Event[T]) Versioned() Versioned[T] {
	return Versioned[T]{Origin: e.Origin, SysTime: e.SysTime, VecTime: e.VecTime, Value: e.Value}
}
