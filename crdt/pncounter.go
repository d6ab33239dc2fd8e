package crdt

// PNCounter is a positive-negative counter: a distributed, eventually
// consistent counter whose value can be concurrently incremented or
// decremented across replicas. It is a pair of GCounters, one tracking
// increments and one tracking decrements.
type PNCounter struct {
	inc GCounter
	dec GCounter
}

// NewPNCounter returns a zeroed PN counter.
func NewPNCounter() PNCounter {
	return PNCounter{}
}

// Add applies delta at replica id: positive deltas grow inc, negative
// deltas grow dec by their absolute value, and a zero delta is a no-op.
func (c *PNCounter) Add(id ReplicaID, delta int64) {
	switch {
	case delta > 0:
		c.inc.Add(id, uint64(delta))
	case delta < 0:
		c.dec.Add(id, uint64(-delta))
	}
}

// Get returns the partial (inc - dec) value recorded for id.
func (c PNCounter) Get(id ReplicaID) int64 {
	return int64(c.inc.Get(id)) - int64(c.dec.Get(id))
}

// IsEmpty reports whether both the increment and decrement counters are
// empty.
func (c PNCounter) IsEmpty() bool {
	return c.inc.IsEmpty() && c.dec.IsEmpty()
}

// Value materializes the counter as sum(inc) - sum(dec).
func (c PNCounter) Value() int64 {
	return int64(c.inc.Value()) - int64(c.dec.Value())
}

// Merge merges both the increment and decrement counters with other's.
func (c *PNCounter) Merge(other *PNCounter) bool {
	incChanged := c.inc.Merge(&other.inc)
	decChanged := c.dec.Merge(&other.dec)
	return incChanged || decChanged
}

// PNCounterDelta is the delta carrier for PNCounter: a pair of optional
// GCounter deltas.
type PNCounterDelta struct {
	inc    GCounterDelta
	hasInc bool
	dec    GCounterDelta
	hasDec bool
}

// Delta moves the accumulated delta buffers of both inner counters out of
// c. Returns (zero, false) only when neither counter has anything buffered.
func (c *PNCounter) Delta() (PNCounterDelta, bool) {
	inc, hasInc := c.inc.Delta()
	dec, hasDec := c.dec.Delta()
	if !hasInc && !hasDec {
		return PNCounterDelta{}, false
	}
	return PNCounterDelta{inc: inc, hasInc: hasInc, dec: dec, hasDec: hasDec}, true
}

// MergeDelta folds a remote delta into c's full state.
func (c *PNCounter) MergeDelta(other *PNCounterDelta) bool {
	changed := false
	if other.hasInc {
		if c.inc.MergeDelta(&other.inc) {
			changed = true
		}
	}
	if other.hasDec {
		if c.dec.MergeDelta(&other.dec) {
			changed = true
		}
	}
	return changed
}

// Merge implements Convergent for PNCounterDelta.
func (d *PNCounterDelta) Merge(other *PNCounterDelta) bool {
	incChanged := MergeOption[GCounterDelta, *GCounterDelta](&d.inc, &d.hasInc, &other.inc, other.hasInc)
	decChanged := MergeOption[GCounterDelta, *GCounterDelta](&d.dec, &d.hasDec, &other.dec, other.hasDec)
	return incChanged || decChanged
}
