package crdt

import "sort"

// DVV is a dotted version vector: a VClock augmented with a "cloud" of dots
// that arrived out of order, plus a compaction rule that promotes cloud dots
// into the contiguous region as soon as they no longer leave a gap.
//
// Invariant (maintained after every mutation): no dot in the cloud is
// contiguous with the vector - if (r, contiguous[r]+1) is present in the
// cloud, it has already been absorbed into contiguous.
type DVV struct {
	contiguous VClock
	cloud      map[Dot]struct{}
}

// NewDVV returns an empty dotted version vector.
func NewDVV() DVV {
	return DVV{}
}

// Inc advances the contiguous region for id by 1. Only ever safe to call for
// the local replica's own timeline, which by construction never generates a
// gap in its own sequence.
func (d *DVV) Inc(id ReplicaID) Dot {
	return d.contiguous.Inc(id)
}

// IncBy advances the contiguous region for id by delta.
func (d *DVV) IncBy(id ReplicaID, delta uint64) Dot {
	return d.contiguous.IncBy(id, delta)
}

// Contains reports whether dot has been observed, either because it falls
// within the contiguous region or because it sits in the cloud.
func (d DVV) Contains(dot Dot) bool {
	if d.contiguous.Contains(dot) {
		return true
	}
	_, ok := d.cloud[dot]
	return ok
}

// insertCloud adds dot to the cloud, returning whether it was newly added.
func (d *DVV) insertCloud(dot Dot) bool {
	if d.cloud == nil {
		d.cloud = make(map[Dot]struct{})
	}
	if _, ok := d.cloud[dot]; ok {
		return false
	}
	d.cloud[dot] = struct{}{}
	return true
}

// compress walks the cloud, promoting any dot (r, contiguous[r]+1) into the
// contiguous region, repeating until no promotion fires, then drops every
// dot contiguous now subsumes.
func (d *DVV) compress() {
	for {
		promoted := false
		ids := make([]ReplicaID, 0, len(d.cloud))
		for dot := range d.cloud {
			ids = append(ids, dot.Replica)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			next := Dot{Replica: id, Seq: d.contiguous.Get(id) + 1}
			if _, ok := d.cloud[next]; ok {
				d.contiguous.Set(next)
				promoted = true
			}
		}
		if !promoted {
			break
		}
	}
	for dot := range d.cloud {
		if d.contiguous.Contains(dot) {
			delete(d.cloud, dot)
		}
	}
}

// Merge joins d with other: the contiguous regions merge as VClocks, any
// cloud dots from other are folded in, and the result is compacted.
func (d *DVV) Merge(other *DVV) bool {
	vecChanged := d.contiguous.Merge(&other.contiguous)
	cloudChanged := false
	for dot := range other.cloud {
		if d.insertCloud(dot) {
			cloudChanged = true
		}
	}
	if vecChanged || cloudChanged {
		d.compress()
	}
	return vecChanged || cloudChanged
}

// Clone returns an independent copy.
func (d DVV) Clone() DVV {
	clone := DVV{contiguous: d.contiguous.Clone()}
	if len(d.cloud) > 0 {
		clone.cloud = make(map[Dot]struct{}, len(d.cloud))
		for dot := range d.cloud {
			clone.cloud[dot] = struct{}{}
		}
	}
	return clone
}
