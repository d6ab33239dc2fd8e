package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestORSetAddWinsScenario is spec.md section 8's observed-remove scenario:
// replica B removes "x" without ever observing replica A's concurrent
// re-add of the same value, so the add must survive the merge.
func TestORSetAddWinsScenario(t *testing.T) {
	var a, b ORSet[string]
	a.Add(1, "x")
	b.Merge(&a)
	b.Remove("x")

	a.Add(1, "x") // concurrent re-add, b has not observed this dot

	a.Merge(&b)
	assert.True(t, a.Contains("x"), "add-wins: a concurrent add must survive a remove that never observed it")
}

func TestORSetRemoveWinsWhenObserved(t *testing.T) {
	var a, b ORSet[string]
	a.Add(1, "x")
	b.Merge(&a)
	b.Remove("x")

	a.Merge(&b)
	assert.False(t, a.Contains("x"), "a remove that has observed every add must win")
}

func TestORSetMergeCommutative(t *testing.T) {
	var a, b ORSet[string]
	a.Add(1, "x")
	b.Add(2, "y")

	ab := a
	ab.Merge(&b)
	ba := b
	ba.Merge(&a)

	assert.ElementsMatch(t, ab.Values(), ba.Values())
}

func TestORSetDeltaFaithfulness(t *testing.T) {
	var a, b ORSet[string]
	a.Add(1, "x")
	a.Add(1, "y")

	delta, ok := a.Delta()
	assert.True(t, ok)
	b.MergeDelta(&delta)

	assert.ElementsMatch(t, a.Values(), b.Values())
}

func TestORSetLenAndIsEmpty(t *testing.T) {
	var s ORSet[string]
	assert.True(t, s.IsEmpty())
	s.Add(1, "x")
	assert.Equal(t, 1, s.Len())
	s.Remove("x")
	assert.True(t, s.IsEmpty())
}
