package crdt

import "cmp"

// ORMap is an observed-remove map: a Kernel keyed on K drives key
// membership with the same add-wins semantics as ORSet, and each live key
// owns a nested CRDT value of type V that is merged recursively instead of
// being replaced wholesale. D is V's delta carrier type; PV is the method
// set of *V, which is what actually implements Convergent/DeltaConvergent
// (Go has no way to express "V's pointer type implements this interface"
// without naming it as a second type parameter). Entries are stored as
// *V rather than V so Entry's insert-or-modify API can hand back a stable,
// mutable handle the way the original's BTreeMap entry API does.
type ORMap[K cmp.Ordered, V any, D any, PV interface {
	*V
	Convergent[V]
	DeltaConvergent[D]
}] struct {
	kernel  Kernel[K]
	entries map[K]*V
}

// NewORMap returns an empty map.
func NewORMap[K cmp.Ordered, V any, D any, PV interface {
	*V
	Convergent[V]
	DeltaConvergent[D]
}]() ORMap[K, V, D, PV] {
	return ORMap[K, V, D, PV]{entries: make(map[K]*V)}
}

// Entry provides the insert-or-modify API for a single key, mirroring
// std::collections::HashMap::entry - but every insert must be attributed to
// a replica id, since it allocates a Kernel dot.
type Entry[K cmp.Ordered, V any, D any, PV interface {
	*V
	Convergent[V]
	DeltaConvergent[D]
}] struct {
	key    K
	handle *ORMap[K, V, D, PV]
}

// Entry begins an insert-or-modify sequence for key.
func (m *ORMap[K, V, D, PV]) Entry(key K) Entry[K, V, D, PV] {
	return Entry[K, V, D, PV]{key: key, handle: m}
}

// Key returns the key this entry was opened for.
func (e Entry[K, V, D, PV]) Key() K { return e.key }

// OrInsert inserts value under id if the key is absent, and returns a
// pointer to the (possibly pre-existing) value either way.
func (e Entry[K, V, D, PV]) OrInsert(id ReplicaID, value V) *V {
	return e.OrInsertWith(id, func() V { return value })
}

// OrDefault inserts the zero value of V under id if the key is absent.
func (e Entry[K, V, D, PV]) OrDefault(id ReplicaID) *V {
	var zero V
	return e.OrInsert(id, zero)
}

// OrInsertWith inserts deflt() under id if the key is absent, without
// evaluating deflt when the key is already present.
func (e Entry[K, V, D, PV]) OrInsertWith(id ReplicaID, deflt func() V) *V {
	m := e.handle
	if v, ok := m.entries[e.key]; ok {
		return v
	}
	value := deflt()
	m.entries[e.key] = &value
	m.kernel.Insert(id, e.key)
	return &value
}

// OrInsertWithKey inserts deflt(key) under id if the key is absent.
func (e Entry[K, V, D, PV]) OrInsertWithKey(id ReplicaID, deflt func(K) V) *V {
	m := e.handle
	if v, ok := m.entries[e.key]; ok {
		return v
	}
	value := deflt(e.key)
	m.entries[e.key] = &value
	m.kernel.Insert(id, e.key)
	return &value
}

// AndModify calls f on the value already stored at this key, attributing the
// edit to id, and is a no-op if the key is absent. Returns the same entry so
// calls can chain into OrInsert etc.
func (e Entry[K, V, D, PV]) AndModify(id ReplicaID, f func(*V)) Entry[K, V, D, PV] {
	m := e.handle
	if v, ok := m.entries[e.key]; ok {
		m.kernel.Insert(id, e.key)
		f(v)
	}
	return e
}

// Remove erases key, along with its nested value and every dot the kernel
// holds for it.
func (m *ORMap[K, V, D, PV]) Remove(key K) {
	m.kernel.Remove(key)
	delete(m.entries, key)
}

// Get returns the nested value stored at key, if any.
func (m ORMap[K, V, D, PV]) Get(key K) (*V, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Len returns the number of live keys.
func (m ORMap[K, V, D, PV]) Len() int { return m.kernel.Len() }

// IsEmpty reports whether the map has no live keys.
func (m ORMap[K, V, D, PV]) IsEmpty() bool { return len(m.entries) == 0 }

// Keys returns the live keys in ascending order.
func (m ORMap[K, V, D, PV]) Keys() []K { return m.kernel.Keys() }

// Merge merges the underlying kernel under observed-remove semantics, and
// recursively merges other's nested CRDT value into every key that gains a
// dot from other. A key whose dots other has no new ones for keeps its
// local nested value unmerged.
func (m *ORMap[K, V, D, PV]) Merge(other *ORMap[K, V, D, PV]) bool {
	if m.entries == nil {
		m.entries = make(map[K]*V)
	}
	changed := m.kernel.MergeWith(&other.kernel, func(op MergeOp[K]) {
		if op.Removed {
			delete(m.entries, op.Key)
			return
		}
		remote, ok := other.entries[op.Key]
		if !ok {
			return
		}
		local, exists := m.entries[op.Key]
		if !exists {
			var zero V
			local = &zero
			m.entries[op.Key] = local
		}
		PV(local).Merge(remote)
	})
	return changed
}

// ORMapDelta is the delta carrier for ORMap: a kernel delta plus the nested
// per-key value deltas for every key the kernel delta newly inserts.
type ORMapDelta[K cmp.Ordered, D any] struct {
	kernel  KernelDelta[K]
	entries map[K]D
}

// Delta moves the accumulated kernel delta out of m, paired with a delta
// from each inserted key's nested value (a key with no pending nested delta
// is simply omitted - the remote side already converges it through the
// kernel delta's insert notification plus whatever full state it already
// holds, matching how MergeDelta below tolerates a missing entry).
func (m *ORMap[K, V, D, PV]) Delta() (ORMapDelta[K, D], bool) {
	kd, ok := m.kernel.Delta()
	if !ok {
		return ORMapDelta[K, D]{}, false
	}
	entries := make(map[K]D)
	for _, key := range kd.Keys() {
		v, ok := m.entries[key]
		if !ok {
			continue
		}
		if d, ok := PV(v).Delta(); ok {
			entries[key] = d
		}
	}
	return ORMapDelta[K, D]{kernel: kd, entries: entries}, true
}

// MergeDelta applies a remote delta to m's full state.
func (m *ORMap[K, V, D, PV]) MergeDelta(other *ORMapDelta[K, D]) bool {
	if m.entries == nil {
		m.entries = make(map[K]*V)
	}
	return m.kernel.MergeWithDelta(&other.kernel, func(op MergeOp[K]) {
		if op.Removed {
			delete(m.entries, op.Key)
			return
		}
		// The kernel always inserts op.Key on an insert notification, even
		// when the nested value had nothing pending to ship (e.g. a
		// just-created, never-mutated entry) - entries must track that
		// unconditionally, or Get/Len/IsEmpty fall out of sync with the
		// kernel's live keys and a stored nil *V panics on first use.
		local, exists := m.entries[op.Key]
		if !exists {
			var zero V
			local = &zero
			m.entries[op.Key] = local
		}
		if d, ok := other.entries[op.Key]; ok {
			PV(local).MergeDelta(&d)
		}
	})
}

// Merge implements Convergent for ORMapDelta.
func (d *ORMapDelta[K, D]) Merge(other *ORMapDelta[K, D]) bool {
	changed := d.kernel.Merge(&other.kernel)
	if d.entries == nil {
		d.entries = make(map[K]D)
	}
	for key, od := range other.entries {
		if _, ok := d.entries[key]; !ok {
			d.entries[key] = od
			changed = true
		}
	}
	return changed
}
