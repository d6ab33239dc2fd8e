package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMClockMinMax(t *testing.T) {
	var m MClock
	row1 := vtime(5, 0, 3)
	row2 := vtime(2, 4, 3)
	m.Replace(1, row1)
	m.Replace(2, row2)

	min := m.Min()
	assert.Equal(t, uint64(2), min.Get(1))
	assert.Equal(t, uint64(0), min.Get(2))
	assert.Equal(t, uint64(3), min.Get(3))

	max := m.Max()
	assert.Equal(t, uint64(5), max.Get(1))
	assert.Equal(t, uint64(4), max.Get(2))
	assert.Equal(t, uint64(3), max.Get(3))
}

func TestMClockMinEmpty(t *testing.T) {
	var m MClock
	assert.True(t, m.Min().IsEmpty())
	assert.True(t, m.Max().IsEmpty())
}

func TestMClockMinSingleRowIsItself(t *testing.T) {
	var m MClock
	row := vtime(7, 1, 0)
	m.Replace(1, row)
	assert.True(t, m.Min().Equal(row), "with only one row, Min must equal that row rather than collapsing to all-zero")
}

func TestMClockMergeRowWise(t *testing.T) {
	var a, b MClock
	a.Replace(1, vtime(1, 0, 0))
	b.Replace(1, vtime(0, 2, 0))
	b.Replace(2, vtime(3, 0, 0))

	changed := a.Merge(&b)
	assert.True(t, changed)
	row1, ok := a.Get(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), row1.Get(1))
	assert.Equal(t, uint64(2), row1.Get(2))
	row2, ok := a.Get(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), row2.Get(1))
}
