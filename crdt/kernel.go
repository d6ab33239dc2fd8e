package crdt

import (
	"cmp"
	"sort"
)

// Kernel is the dot-tagged multi-map that powers every observed-remove
// collection in this package (ORSet, ORMap, MVRegister). It tracks which
// (replica, seq) dots have been seen (via an embedded DVV) versus which are
// currently live (attached to a key in entries), and produces/merges deltas
// idempotently.
//
// Invariants:
//   - every dot attached to any key was issued by seen.Inc, so seen.Contains
//     holds for it;
//   - entries never holds an empty dot set for a key (empty sets are
//     deleted outright);
//   - dots are unique per key (a set, not a multiset).
type Kernel[T cmp.Ordered] struct {
	seen    DVV
	entries map[T]map[Dot]struct{}
	delta   *KernelDelta[T]
}

// NewKernel returns an empty kernel.
func NewKernel[T cmp.Ordered]() Kernel[T] {
	return Kernel[T]{}
}

// KernelDelta is the minimal information a remote replica needs to converge:
// newly inserted (value, dots) pairs and a flat set of removed dots.
type KernelDelta[T cmp.Ordered] struct {
	Inserts  map[T]map[Dot]struct{}
	Removals map[Dot]struct{}
}

func newKernelDelta[T cmp.Ordered]() *KernelDelta[T] {
	return &KernelDelta[T]{
		Inserts:  make(map[T]map[Dot]struct{}),
		Removals: make(map[Dot]struct{}),
	}
}

func (d *KernelDelta[T]) recordInsert(value T, dot Dot) {
	if d.Inserts == nil {
		d.Inserts = make(map[T]map[Dot]struct{})
	}
	set, ok := d.Inserts[value]
	if !ok {
		set = make(map[Dot]struct{})
		d.Inserts[value] = set
	}
	set[dot] = struct{}{}
}

func (d *KernelDelta[T]) recordRemovals(dots map[Dot]struct{}) {
	if d.Removals == nil {
		d.Removals = make(map[Dot]struct{})
	}
	for dot := range dots {
		d.Removals[dot] = struct{}{}
	}
}

// HasInserts reports whether the delta carries any insert.
func (d *KernelDelta[T]) HasInserts() bool { return len(d.Inserts) > 0 }

// HasRemovals reports whether the delta carries any removal.
func (d *KernelDelta[T]) HasRemovals() bool { return len(d.Removals) > 0 }

// Keys returns the values touched by inserts in this delta, in ascending
// order.
func (d *KernelDelta[T]) Keys() []T {
	keys := make([]T, 0, len(d.Inserts))
	for k := range d.Inserts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Merge joins two deltas: inserts union their dot sets per key, removals
// union as a flat set. Used to compose deltas before a single network round
// trip, or inside Delta.Merge-style plumbing in ORMap.
func (d *KernelDelta[T]) Merge(other *KernelDelta[T]) bool {
	changed := false
	for value, dots := range other.Inserts {
		for dot := range dots {
			before := len(d.Inserts[value])
			d.recordInsert(value, dot)
			if len(d.Inserts[value]) != before {
				changed = true
			}
		}
	}
	for dot := range other.Removals {
		if _, ok := d.Removals[dot]; !ok {
			if d.Removals == nil {
				d.Removals = make(map[Dot]struct{})
			}
			d.Removals[dot] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (k *Kernel[T]) ensureDelta() *KernelDelta[T] {
	if k.delta == nil {
		k.delta = newKernelDelta[T]()
	}
	return k.delta
}

// Insert allocates a fresh dot for id, attaches it to value, and returns the
// dot so callers (e.g. ORMap) can tag follow-up edits with it.
func (k *Kernel[T]) Insert(id ReplicaID, value T) Dot {
	dot := k.seen.Inc(id)
	if k.entries == nil {
		k.entries = make(map[T]map[Dot]struct{})
	}
	set, ok := k.entries[value]
	if !ok {
		set = make(map[Dot]struct{})
		k.entries[value] = set
	}
	set[dot] = struct{}{}

	k.ensureDelta().recordInsert(value, dot)
	return dot
}

// Remove drains every dot currently attached to value into the delta's
// removal set and erases the key.
func (k *Kernel[T]) Remove(value T) {
	dots := k.entries[value]
	delete(k.entries, value)
	if len(dots) > 0 {
		k.ensureDelta().recordRemovals(dots)
	}
}

// Clear drains every dot across every key into the delta's removal set and
// empties entries.
func (k *Kernel[T]) Clear() {
	for _, dots := range k.entries {
		k.ensureDelta().recordRemovals(dots)
	}
	k.entries = nil
}

// Len returns the number of live keys.
func (k Kernel[T]) Len() int { return len(k.entries) }

// IsEmpty reports whether there are no live keys.
func (k Kernel[T]) IsEmpty() bool { return len(k.entries) == 0 }

// MergeOp is delivered to a Kernel merge observer for each key-state change:
// a key gaining a dot (Removed=false) or losing its last dot (Removed=true).
// See MergeWith and MergeWithDelta for how often each fires.
type MergeOp[T cmp.Ordered] struct {
	Key     T
	Removed bool
}

// MergeWith merges other into k, calling observe once for every dot a key
// gains that k didn't have (Removed=false), and once for every key that
// loses its last dot (Removed=true), in ascending key order (see
// sortedMapKeys). This is the
// observed-remove decision rule: a deletion only wins over a concurrent add
// if the deleting replica had already seen the add.
func (k *Kernel[T]) MergeWith(other *Kernel[T], observe func(MergeOp[T])) bool {
	changed := false

	if k.entries == nil {
		k.entries = make(map[T]map[Dot]struct{})
	}

	otherKeys := sortedMapKeys(other.entries)
	for _, value := range otherKeys {
		otherDots := other.entries[value]
		set, ok := k.entries[value]
		if !ok {
			set = make(map[Dot]struct{})
			k.entries[value] = set
		}
		for _, dot := range sortedDots(otherDots) {
			if _, have := set[dot]; !have {
				set[dot] = struct{}{}
				changed = true
				observe(MergeOp[T]{Key: value})
			}
		}
	}

	selfKeys := sortedMapKeys(k.entries)
	for _, value := range selfKeys {
		dots := k.entries[value]
		if _, stillPresent := other.entries[value]; stillPresent {
			continue
		}
		// other no longer lists value: any dot other has already seen was
		// observed and then removed, so it doesn't survive. A dot other has
		// never seen was created concurrently with (or after) that removal
		// and must survive regardless - this is the add-wins rule applied
		// per dot, not per key.
		survivors := make(map[Dot]struct{}, len(dots))
		for dot := range dots {
			if !other.seen.Contains(dot) {
				survivors[dot] = struct{}{}
			}
		}
		if len(survivors) == len(dots) {
			continue
		}
		changed = true
		if len(survivors) == 0 {
			delete(k.entries, value)
			observe(MergeOp[T]{Key: value, Removed: true})
		} else {
			k.entries[value] = survivors
		}
	}

	if k.seen.Merge(&other.seen) {
		changed = true
	}
	return changed
}

// Merge implements Convergent for Kernel, discarding observer notifications.
func (k *Kernel[T]) Merge(other *Kernel[T]) bool {
	return k.MergeWith(other, func(MergeOp[T]) {})
}

// Delta moves the accumulated delta out of k, leaving the buffer empty.
func (k *Kernel[T]) Delta() (KernelDelta[T], bool) {
	if k.delta == nil {
		return KernelDelta[T]{}, false
	}
	d := *k.delta
	k.delta = nil
	return d, true
}

// MergeWithDelta applies a remote delta. Inserts whose dots are not yet in
// seen are appended and reported Updated; removals strip matching dots from
// every entry and, when an entry empties, erase the key and report Removed.
//
// seen is deliberately NOT advanced here: this lets concurrent deltas
// interleave without losing signal, since the full-state merge path
// (MergeWith) is the one that advances causal knowledge. Implementations
// must not "fix" this by advancing seen on insert-delta-merge, or the
// add-wins semantics across delta streams silently break (duplicate delta
// re-application of a stale insert would otherwise be swallowed as already
// seen instead of being re-applied harmlessly).
func (k *Kernel[T]) MergeWithDelta(other *KernelDelta[T], observe func(MergeOp[T])) bool {
	changed := false

	if k.entries == nil {
		k.entries = make(map[T]map[Dot]struct{})
	}

	for _, value := range sortedMapKeys(other.Inserts) {
		dots := other.Inserts[value]
		unseen := false
		for dot := range dots {
			if !k.seen.Contains(dot) {
				unseen = true
				break
			}
		}
		if !unseen {
			continue
		}
		changed = true
		set, ok := k.entries[value]
		if !ok {
			set = make(map[Dot]struct{})
			k.entries[value] = set
		}
		for _, dot := range sortedDots(dots) {
			set[dot] = struct{}{}
		}
		observe(MergeOp[T]{Key: value})
	}

	for _, dot := range sortedDots(other.Removals) {
		for _, value := range sortedMapKeys(k.entries) {
			set, ok := k.entries[value]
			if !ok {
				continue
			}
			if _, found := set[dot]; !found {
				continue
			}
			delete(set, dot)
			changed = true
			if len(set) == 0 {
				delete(k.entries, value)
				observe(MergeOp[T]{Key: value, Removed: true})
			}
		}
	}

	return changed
}

// MergeDelta implements DeltaConvergent for Kernel, discarding observer
// notifications.
func (k *Kernel[T]) MergeDelta(other *KernelDelta[T]) bool {
	return k.MergeWithDelta(other, func(MergeOp[T]) {})
}

// Keys returns the live keys in ascending order.
func (k Kernel[T]) Keys() []T {
	return sortedMapKeys(k.entries)
}

// sortedDots returns the dots of a set in ascending (replica, seq) order.
func sortedDots(dots map[Dot]struct{}) []Dot {
	out := make([]Dot, 0, len(dots))
	for d := range dots {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// sortedMapKeys returns the keys of m in ascending order. Used throughout
// the kernel so merge observers fire in a deterministic, key-ordered
// sequence as required by the observer contract.
func sortedMapKeys[T cmp.Ordered, V any](m map[T]V) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
