package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// noGapInCloud re-checks DVV's documented invariant directly: no dot in the
// cloud should be contiguous with its replica's vector entry.
func noGapInCloud(t *testing.T, d DVV) {
	t.Helper()
	for dot := range d.cloud {
		next := Dot{Replica: dot.Replica, Seq: d.contiguous.Get(dot.Replica) + 1}
		assert.NotEqual(t, next, dot, "cloud dot %v is contiguous with %v's vector entry and should have been absorbed", dot, dot.Replica)
	}
}

func TestDVVOutOfOrderArrivalCompresses(t *testing.T) {
	var a DVV
	d1 := a.Inc(1)
	d2 := a.Inc(1)
	d3 := a.Inc(1)

	// Receiver sees d3, then d1, then d2 - out of order.
	var recv DVV
	recv.insertCloud(d3)
	noGapInCloud(t, recv)
	recv.insertCloud(d1)
	recv.compress()
	noGapInCloud(t, recv)
	assert.True(t, recv.Contains(d1))
	assert.False(t, recv.Contains(d2))
	assert.True(t, recv.Contains(d3), "d3 is buffered in the cloud even though d2 hasn't arrived")

	recv.insertCloud(d2)
	recv.compress()
	noGapInCloud(t, recv)
	assert.True(t, recv.Contains(d1))
	assert.True(t, recv.Contains(d2))
	assert.True(t, recv.Contains(d3))
	assert.Equal(t, uint64(3), recv.contiguous.Get(1), "all three dots should have been absorbed into the contiguous region")
}

func TestDVVMergeCommutative(t *testing.T) {
	var a, b DVV
	a.Inc(1)
	a.Inc(1)
	b.Inc(2)

	ab := a.Clone()
	ab.Merge(&b)
	ba := b.Clone()
	ba.Merge(&a)

	assert.True(t, ab.contiguous.Equal(ba.contiguous))
	noGapInCloud(t, ab)
	noGapInCloud(t, ba)
}

func TestDVVMergeIdempotent(t *testing.T) {
	var a, b DVV
	a.Inc(1)
	b.Inc(1)
	b.Inc(1)

	once := a.Clone()
	once.Merge(&b)
	twice := once.Clone()
	twice.Merge(&b)

	assert.True(t, once.contiguous.Equal(twice.contiguous))
	assert.Equal(t, len(once.cloud), len(twice.cloud))
}
