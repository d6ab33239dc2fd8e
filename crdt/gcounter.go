package crdt

// GCounter is a grow-only counter: a distributed, eventually consistent
// counter that many replicas can increment concurrently. It never supports
// decrement (see PNCounter for that).
type GCounter struct {
	counts   VClock
	delta    VClock
	hasDelta bool
}

// NewGCounter returns a zeroed grow-only counter.
func NewGCounter() GCounter {
	return GCounter{}
}

// Add increments the counter's partial value at id by delta. A zero delta is
// a no-op: it changes nothing and must not mark a delta pending.
func (c *GCounter) Add(id ReplicaID, delta uint64) {
	if delta == 0 {
		return
	}
	dot := c.counts.IncBy(id, delta)
	c.delta.Set(dot)
	c.hasDelta = true
}

// Get returns the partial counter value recorded for id.
func (c GCounter) Get(id ReplicaID) uint64 {
	return c.counts.Get(id)
}

// IsEmpty reports whether the counter holds any value.
func (c GCounter) IsEmpty() bool {
	return c.counts.IsEmpty()
}

// Value materializes the counter as the sum of every replica's partial
// value.
func (c GCounter) Value() uint64 {
	var total uint64
	c.counts.Each(func(_ ReplicaID, seq uint64) { total += seq })
	return total
}

// Merge takes the componentwise maximum with other.
func (c *GCounter) Merge(other *GCounter) bool {
	return c.counts.Merge(&other.counts)
}

// GCounterDelta is the delta carrier for GCounter: itself just a VClock, so
// deltas recompose by componentwise max like any other VClock.
type GCounterDelta struct {
	counts VClock
}

// NewGCounterDelta wraps a VClock as a GCounterDelta, for codecs
// reconstructing a delta from decoded bytes.
func NewGCounterDelta(counts VClock) GCounterDelta {
	return GCounterDelta{counts: counts}
}

// Counts exposes the underlying VClock for encoding.
func (d GCounterDelta) Counts() VClock { return d.counts }

// Delta moves the accumulated delta buffer out of c.
func (c *GCounter) Delta() (GCounterDelta, bool) {
	if !c.hasDelta {
		return GCounterDelta{}, false
	}
	d := GCounterDelta{counts: c.delta}
	c.delta = VClock{}
	c.hasDelta = false
	return d, true
}

// MergeDelta folds a remote delta into c's full state.
func (c *GCounter) MergeDelta(other *GCounterDelta) bool {
	return c.counts.Merge(&other.counts)
}

// Merge implements Convergent for GCounterDelta.
func (d *GCounterDelta) Merge(other *GCounterDelta) bool {
	return d.counts.Merge(&other.counts)
}
