package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGCounterConvergesScenario is the worked example from spec.md section 8:
// three replicas independently add 1, 2, 3, then fully merge pairwise and
// expect every replica to materialize 6.
func TestGCounterConvergesScenario(t *testing.T) {
	var a, b, c GCounter
	a.Add(1, 1)
	b.Add(2, 2)
	c.Add(3, 3)

	a.Merge(&b)
	a.Merge(&c)
	b.Merge(&a)
	c.Merge(&b)

	assert.Equal(t, uint64(6), a.Value())
	assert.Equal(t, uint64(6), b.Value())
	assert.Equal(t, uint64(6), c.Value())
}

func TestGCounterMergeIdempotent(t *testing.T) {
	var a, b GCounter
	a.Add(1, 5)
	b.Add(2, 3)

	once := a
	once.Merge(&b)
	twice := GCounter{counts: once.counts.Clone()}
	twice.Merge(&b)

	assert.Equal(t, once.Value(), twice.Value())
}

func TestGCounterMergeCommutative(t *testing.T) {
	var a, b GCounter
	a.Add(1, 5)
	b.Add(2, 3)

	ab := a
	ab.Merge(&b)
	ba := b
	ba.Merge(&a)

	assert.Equal(t, ab.Value(), ba.Value())
}

func TestGCounterDeltaFaithfulness(t *testing.T) {
	var a, b GCounter
	a.Add(1, 4)
	delta, ok := a.Delta()
	assert.True(t, ok)

	b.MergeDelta(&delta)
	assert.Equal(t, a.Value(), b.Value())
}

func TestGCounterDeltaRepeatedApplicationIdempotent(t *testing.T) {
	var a, b GCounter
	a.Add(1, 4)
	delta, _ := a.Delta()

	b.MergeDelta(&delta)
	first := b.Value()
	b.MergeDelta(&delta)
	assert.Equal(t, first, b.Value())
}

func TestGCounterDeltaEmptyAfterExtraction(t *testing.T) {
	var a GCounter
	a.Add(1, 1)
	_, ok := a.Delta()
	assert.True(t, ok)
	_, ok = a.Delta()
	assert.False(t, ok, "Delta must drain the buffer")
}
