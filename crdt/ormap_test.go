package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lwwMap = ORMap[string, LWWRegister[int], LWWRegisterDelta[int], *LWWRegister[int]]

func newLWWMap() lwwMap {
	return NewORMap[string, LWWRegister[int], LWWRegisterDelta[int], *LWWRegister[int]]()
}

func TestORMapEntryOrInsertWith(t *testing.T) {
	m := newLWWMap()
	v := m.Entry("a").OrInsertWith(1, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(1, 42)
		return r
	})
	val, ok := v.Value()
	require.True(t, ok)
	assert.Equal(t, 42, val)
	assert.Equal(t, []string{"a"}, m.Keys())

	// A second OrInsertWith on the same key must not overwrite it.
	m.Entry("a").OrInsertWith(1, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(1, 99)
		return r
	})
	got, _ := m.Get("a")
	gotVal, _ := got.Value()
	assert.Equal(t, 42, gotVal)
}

func TestORMapAndModifyOrInsertChain(t *testing.T) {
	m := newLWWMap()
	m.Entry("a").
		AndModify(1, func(r *LWWRegister[int]) { r.Assign(1, 7) }).
		OrInsertWith(1, func() LWWRegister[int] {
			r := NewLWWRegister[int]()
			r.Assign(1, 1)
			return r
		})
	v, _ := m.Get("a")
	got, _ := v.Value()
	assert.Equal(t, 1, got, "AndModify is a no-op on an absent key, so OrInsertWith must still fire")

	m.Entry("a").
		AndModify(1, func(r *LWWRegister[int]) { r.Assign(1, 2) }).
		OrInsertWith(1, func() LWWRegister[int] {
			t.Fatal("OrInsertWith must not run when AndModify already touched a present key")
			return LWWRegister[int]{}
		})
	v, _ = m.Get("a")
	got, _ = v.Value()
	assert.Equal(t, 2, got)
}

func TestORMapRemove(t *testing.T) {
	m := newLWWMap()
	m.Entry("a").OrDefault(1)
	assert.Equal(t, 1, m.Len())
	m.Remove("a")
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestORMapMergeRecursesIntoNestedValue(t *testing.T) {
	a := newLWWMap()
	b := newLWWMap()

	a.Entry("shared").OrInsertWith(1, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(1, 10)
		return r
	})
	b.Entry("shared").OrInsertWith(2, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(2, 20)
		return r
	})
	b.Entry("only-b").OrInsertWith(2, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(2, 5)
		return r
	})

	changed := a.Merge(&b)
	assert.True(t, changed)
	assert.ElementsMatch(t, []string{"shared", "only-b"}, a.Keys())

	shared, ok := a.Get("shared")
	require.True(t, ok)
	sv, _ := shared.Value()
	assert.Equal(t, 20, sv, "nested LWWRegister merge must pick the newer write")
}

func TestORMapMergeIdempotent(t *testing.T) {
	a := newLWWMap()
	b := newLWWMap()
	a.Entry("x").OrDefault(1)
	b.Entry("y").OrDefault(2)

	once := cloneORMap(a)
	once.Merge(&b)
	twice := cloneORMap(once)
	twice.Merge(&b)

	assert.ElementsMatch(t, once.Keys(), twice.Keys())
}

func cloneEntries(m map[string]*LWWRegister[int]) map[string]*LWWRegister[int] {
	out := make(map[string]*LWWRegister[int], len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

// cloneORMap returns an independent copy: a shallow struct copy of ORMap
// aliases both the kernel's and the entries map's backing storage, which
// would make two "independent" copies actually share mutable state.
func cloneORMap(m lwwMap) lwwMap {
	return lwwMap{kernel: cloneKernel(m.kernel), entries: cloneEntries(m.entries)}
}

// TestORMapMergeRecursesIntoMapBackedValue exercises ORMap's insert-on-merge
// path with a nested value type (ORSet) whose Kernel holds map-typed fields.
// A shallow struct copy of the remote value on first observation would alias
// its live entries/seen maps with the remote's, so a later local mutation
// would silently corrupt the remote's state.
func TestORMapMergeRecursesIntoMapBackedValue(t *testing.T) {
	a := NewORMap[string, ORSet[string], ORSetDelta[string], *ORSet[string]]()
	b := NewORMap[string, ORSet[string], ORSetDelta[string], *ORSet[string]]()

	remote := NewORSet[string]()
	remote.Add(2, "x")
	b.Entry("tags").OrInsert(2, remote)

	changed := a.Merge(&b)
	assert.True(t, changed)

	local, ok := a.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, local.Values())

	// Mutating the locally-adopted copy must not reach back into b's set.
	local.Add(1, "y")
	assert.Equal(t, []string{"x", "y"}, local.Values())

	bTags, ok := b.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, bTags.Values(), "merge must not alias the remote's nested storage")
}

func TestORMapDeltaFaithfulness(t *testing.T) {
	a := newLWWMap()
	b := newLWWMap()

	a.Entry("a").OrInsertWith(1, func() LWWRegister[int] {
		r := NewLWWRegister[int]()
		r.Assign(1, 1)
		return r
	})

	delta, ok := a.Delta()
	require.True(t, ok)
	b.MergeDelta(&delta)

	assert.Equal(t, a.Keys(), b.Keys())
	av, _ := a.Get("a")
	bv, _ := b.Get("a")
	aVal, _ := av.Value()
	bVal, _ := bv.Value()
	assert.Equal(t, aVal, bVal)
}

// TestORMapMergeDeltaCreatesEntryWithoutNestedPayload covers a key whose
// nested value has nothing pending to ship in its own delta (a freshly
// inserted, never-mutated LWWRegister): the kernel delta still carries an
// insert for that key, and entries must track it or Get/Len/IsEmpty fall
// out of sync with the kernel's live keys.
func TestORMapMergeDeltaCreatesEntryWithoutNestedPayload(t *testing.T) {
	a := newLWWMap()
	b := newLWWMap()

	a.Entry("a").OrDefault(1)

	delta, ok := a.Delta()
	require.True(t, ok)
	b.MergeDelta(&delta)

	assert.Equal(t, 1, b.Len())
	assert.False(t, b.IsEmpty())
	v, ok := b.Get("a")
	require.True(t, ok, "MergeDelta must create the entry even when the nested value had no pending delta")
	require.NotNil(t, v)
	_, hasValue := v.Value()
	assert.False(t, hasValue, "OrDefault inserts an empty register, so no value has been assigned yet")
}

func TestORMapRemoveObservedWins(t *testing.T) {
	a := newLWWMap()
	a.Entry("a").OrDefault(1)

	b := cloneORMap(a)
	b.Merge(&a) // b observes a's insert
	b.Remove("a")

	a.Merge(&b)
	assert.Equal(t, 0, a.Len(), "a remove that observed the insert must win")
}
