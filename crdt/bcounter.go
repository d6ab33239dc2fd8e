package crdt

import (
	"fmt"
	"sort"
)

// transferKey identifies a quota transfer edge from Sender to Recipient.
type transferKey struct {
	Sender, Recipient ReplicaID
}

// BCounter is a bounded counter: it can be increased or decreased, but its
// total value can never drop below 0. Since a decrement can legitimately be
// impossible to perform safely, Add and Transfer report failure instead of
// corrupting the invariant.
type BCounter struct {
	counter        PNCounter
	transfers      map[transferKey]uint64
	transfersDelta map[transferKey]uint64
}

// NewBCounter returns a zeroed bounded counter.
func NewBCounter() BCounter {
	return BCounter{}
}

// Add increments the counter by delta, which may be negative. A negative
// delta fails with ErrQuotaExceeded if it would drive the replica's quota
// below zero; the operation is then a no-op on state.
func (c *BCounter) Add(id ReplicaID, delta int64) error {
	switch {
	case delta > 0:
		c.counter.Add(id, delta)
		return nil
	case delta < 0:
		available := c.Quota(id)
		need := uint64(-delta)
		if available < need {
			return fmt.Errorf("crdt: replica %d has quota %d, cannot subtract %d: %w", id, available, need, ErrQuotaExceeded)
		}
		c.counter.Add(id, delta)
		return nil
	default:
		return nil
	}
}

// Transfer moves quota units of decrement headroom from sender to
// recipient. Fails with ErrQuotaExceeded when quota is not strictly less
// than the sender's available quota (see DESIGN.md for the ambiguity this
// resolves: q == quota(sender) is treated as exceeding, matching the
// original implementation's strict comparison).
func (c *BCounter) Transfer(sender, recipient ReplicaID, quota uint64) error {
	available := c.Quota(sender)
	if quota >= available {
		return fmt.Errorf("crdt: replica %d has quota %d, cannot transfer %d: %w", sender, available, quota, ErrQuotaExceeded)
	}
	key := transferKey{Sender: sender, Recipient: recipient}
	if c.transfers == nil {
		c.transfers = make(map[transferKey]uint64)
	}
	c.transfers[key] += quota

	if c.transfersDelta == nil {
		c.transfersDelta = make(map[transferKey]uint64)
	}
	c.transfersDelta[key] += quota
	return nil
}

// Quota returns the maximum decrement id can safely perform right now: its
// own counter contribution, plus inbound transfers, minus outbound
// transfers.
func (c BCounter) Quota(id ReplicaID) uint64 {
	quota := int64(c.counter.Get(id))
	for key, v := range c.transfers {
		switch id {
		case key.Sender:
			quota -= int64(v)
		case key.Recipient:
			quota += int64(v)
		}
	}
	if quota < 0 {
		return 0
	}
	return uint64(quota)
}

// Value materializes the counter's total value.
func (c BCounter) Value() uint64 {
	v := c.counter.Value()
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func sortedTransferKeys(m map[transferKey]uint64) []transferKey {
	keys := make([]transferKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Sender != keys[j].Sender {
			return keys[i].Sender < keys[j].Sender
		}
		return keys[i].Recipient < keys[j].Recipient
	})
	return keys
}

// Merge merges the counter pairwise and takes a componentwise maximum over
// transfers.
func (c *BCounter) Merge(other *BCounter) bool {
	changed := c.counter.Merge(&other.counter)
	for _, key := range sortedTransferKeys(other.transfers) {
		v := other.transfers[key]
		if c.transfers == nil {
			c.transfers = make(map[transferKey]uint64)
		}
		if v > c.transfers[key] {
			c.transfers[key] = v
			changed = true
		}
	}
	return changed
}

// BCounterDelta is the delta carrier for BCounter.
type BCounterDelta struct {
	counter      PNCounterDelta
	hasCounter   bool
	transfers    map[transferKey]uint64
	hasTransfers bool
}

// Delta moves the accumulated counter and transfer deltas out of c.
func (c *BCounter) Delta() (BCounterDelta, bool) {
	counterDelta, hasCounter := c.counter.Delta()
	transfers := c.transfersDelta
	hasTransfers := len(transfers) > 0
	c.transfersDelta = nil
	if !hasCounter && !hasTransfers {
		return BCounterDelta{}, false
	}
	return BCounterDelta{
		counter:      counterDelta,
		hasCounter:   hasCounter,
		transfers:    transfers,
		hasTransfers: hasTransfers,
	}, true
}

// MergeDelta folds a remote delta into c's full state.
func (c *BCounter) MergeDelta(other *BCounterDelta) bool {
	changed := false
	if other.hasCounter {
		if c.counter.MergeDelta(&other.counter) {
			changed = true
		}
	}
	for _, key := range sortedTransferKeys(other.transfers) {
		v := other.transfers[key]
		if c.transfers == nil {
			c.transfers = make(map[transferKey]uint64)
		}
		if v > c.transfers[key] {
			c.transfers[key] = v
			changed = true
		}
	}
	return changed
}

// Merge implements Convergent for BCounterDelta.
func (d *BCounterDelta) Merge(other *BCounterDelta) bool {
	changed := MergeOption[PNCounterDelta, *PNCounterDelta](&d.counter, &d.hasCounter, &other.counter, other.hasCounter)
	for _, key := range sortedTransferKeys(other.transfers) {
		v := other.transfers[key]
		if d.transfers == nil {
			d.transfers = make(map[transferKey]uint64)
		}
		if v > d.transfers[key] {
			d.transfers[key] = v
			changed = true
		}
	}
	if len(other.transfers) > 0 {
		d.hasTransfers = true
	}
	return changed
}
