package crdt

import "sort"

// ReplicaID identifies one replica. Totally ordered; used as a deterministic
// tie-breaker wherever two replicas race.
type ReplicaID uint32

// Dot is a (replica, seq) pair uniquely naming one event in the system. A
// given replica never reuses seq, so dots are unique across the system by
// construction.
type Dot struct {
	Replica ReplicaID
	Seq     uint64
}

// Less orders dots by replica then by sequence number. Used for
// deterministic iteration over sets of dots.
func (d Dot) Less(other Dot) bool {
	if d.Replica != other.Replica {
		return d.Replica < other.Replica
	}
	return d.Seq < other.Seq
}

// Ordering mirrors the three-way comparison result of a total order.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// VClock is a per-replica monotonic counter map: ReplicaID -> seq number,
// with an absent key treated as 0. Values only ever increase under the
// operations defined here.
type VClock struct {
	counts map[ReplicaID]uint64
}

// NewVClock returns an empty vector clock.
func NewVClock() VClock {
	return VClock{}
}

func (v *VClock) ensure() {
	if v.counts == nil {
		v.counts = make(map[ReplicaID]uint64)
	}
}

// IncBy increments the counter for id by delta and returns the resulting
// Dot. A delta of 0 is a no-op that returns the current value as a Dot,
// matching the HLC/DVV contract of "peek without advancing".
func (v *VClock) IncBy(id ReplicaID, delta uint64) Dot {
	if delta == 0 {
		return Dot{Replica: id, Seq: v.Get(id)}
	}
	v.ensure()
	v.counts[id] += delta
	return Dot{Replica: id, Seq: v.counts[id]}
}

// Inc increments the counter for id by 1.
func (v *VClock) Inc(id ReplicaID) Dot {
	return v.IncBy(id, 1)
}

// Get returns the sequence number for id, or 0 if absent.
func (v VClock) Get(id ReplicaID) uint64 {
	return v.counts[id]
}

// Set raises the counter for dot's replica to at least dot.Seq. Returns true
// if the clock was changed as a result.
func (v *VClock) Set(dot Dot) bool {
	if dot.Seq > v.Get(dot.Replica) {
		v.ensure()
		v.counts[dot.Replica] = dot.Seq
		return true
	}
	return false
}

// Contains reports whether dot has already been observed by this clock.
func (v VClock) Contains(dot Dot) bool {
	return v.Get(dot.Replica) >= dot.Seq
}

// IsEmpty reports whether the clock stores any value.
func (v VClock) IsEmpty() bool {
	return len(v.counts) == 0
}

// Clone returns an independent copy.
func (v VClock) Clone() VClock {
	if len(v.counts) == 0 {
		return VClock{}
	}
	c := make(map[ReplicaID]uint64, len(v.counts))
	for k, val := range v.counts {
		c[k] = val
	}
	return VClock{counts: c}
}

// sortedReplicas returns the clock's replica ids in ascending order, for
// deterministic iteration.
func (v VClock) sortedReplicas() []ReplicaID {
	ids := make([]ReplicaID, 0, len(v.counts))
	for id := range v.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls f once per (replica, seq) entry in replica-id order.
func (v VClock) Each(f func(id ReplicaID, seq uint64)) {
	for _, id := range v.sortedReplicas() {
		f(id, v.counts[id])
	}
}

// ZipEntry is one row produced by Zip: the sequence numbers both clocks
// report for a given replica (0 if a clock doesn't mention that replica).
type ZipEntry struct {
	Replica     ReplicaID
	Left, Right uint64
}

// Zip performs a deterministic merge-iteration over the union of replicas
// mentioned by v and other, yielding (replica, v[r], other[r]) triples with
// an absent value treated as 0.
func (v VClock) Zip(other VClock) []ZipEntry {
	left := v.sortedReplicas()
	right := other.sortedReplicas()
	entries := make([]ZipEntry, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		switch {
		case i < len(left) && (j >= len(right) || left[i] < right[j]):
			entries = append(entries, ZipEntry{Replica: left[i], Left: v.counts[left[i]], Right: 0})
			i++
		case j < len(right) && (i >= len(left) || right[j] < left[i]):
			entries = append(entries, ZipEntry{Replica: right[j], Left: 0, Right: other.counts[right[j]]})
			j++
		default:
			id := left[i]
			entries = append(entries, ZipEntry{Replica: id, Left: v.counts[id], Right: other.counts[id]})
			i++
			j++
		}
	}
	return entries
}

// Min returns a new clock holding the componentwise minimum of v and other.
func (v VClock) Min(other VClock) VClock {
	result := NewVClock()
	for _, e := range v.Zip(other) {
		if e.Left < e.Right {
			result.setNonZero(e.Replica, e.Left)
		} else {
			result.setNonZero(e.Replica, e.Right)
		}
	}
	return result
}

// Max returns a new clock holding the componentwise maximum of v and other.
// Equivalent to v.Clone().Merge(&other) but does not mutate either operand.
func (v VClock) Max(other VClock) VClock {
	result := NewVClock()
	for _, e := range v.Zip(other) {
		if e.Left > e.Right {
			result.setNonZero(e.Replica, e.Left)
		} else {
			result.setNonZero(e.Replica, e.Right)
		}
	}
	return result
}

// setNonZero is a tiny unexported helper so Min/Max don't need to special
// case "skip zero entries" inline; zero entries are harmless (Get returns 0
// for absent keys either way) but omitting them keeps the result compact.
func (v *VClock) setNonZero(id ReplicaID, val uint64) {
	if val == 0 {
		return
	}
	v.ensure()
	v.counts[id] = val
}

// Merge takes the componentwise maximum of v and other, in place. Reports
// whether v changed.
func (v *VClock) Merge(other *VClock) bool {
	changed := false
	for id, val := range other.counts {
		if val > v.Get(id) {
			v.ensure()
			v.counts[id] = val
			changed = true
		}
	}
	return changed
}

// PartialCmp compares v and other under the partial order a<=b iff for all
// replicas r, a[r]<=b[r]. The second return value is false when v and other
// are concurrent (neither precedes the other).
func (v VClock) PartialCmp(other VClock) (Ordering, bool) {
	result := Equal
	for _, e := range v.Zip(other) {
		switch {
		case e.Left < e.Right:
			if result == Greater {
				return 0, false
			}
			result = Less
		case e.Left > e.Right:
			if result == Less {
				return 0, false
			}
			result = Greater
		}
	}
	return result, true
}

// HappensBefore reports whether v causally precedes other: v <= other and
// v != other.
func (v VClock) HappensBefore(other VClock) bool {
	ord, ok := v.PartialCmp(other)
	return ok && ord == Less
}

// Concurrent reports whether neither v nor other causally precedes the
// other.
func (v VClock) Concurrent(other VClock) bool {
	_, ok := v.PartialCmp(other)
	return !ok
}

// Equal reports whether v and other compare equal under PartialCmp.
func (v VClock) Equal(other VClock) bool {
	ord, ok := v.PartialCmp(other)
	return ok && ord == Equal
}
