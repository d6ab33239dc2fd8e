package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSetAndGet(t *testing.T) {
	d := NewDocument(1)
	d.Set("title", "hello")

	v, ok := d.Get("title")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.EqualValues(t, 1, d.EditCount())
}

func TestDocumentSetOverwritesSameReplica(t *testing.T) {
	d := NewDocument(1)
	d.Set("title", "first")
	d.Set("title", "second")

	v, _ := d.Get("title")
	assert.Equal(t, "second", v)
	assert.EqualValues(t, 2, d.EditCount())
}

func TestDocumentJoinLeaveParticipants(t *testing.T) {
	d := NewDocument(1)
	d.Join("alice")
	d.Join("bob")
	assert.ElementsMatch(t, []string{"alice", "bob"}, d.Participants())

	d.Leave("alice")
	assert.Equal(t, []string{"bob"}, d.Participants())
}

func TestDocumentMergeConvergesFields(t *testing.T) {
	a := NewDocument(1)
	b := NewDocument(2)

	a.Set("title", "from-a")
	b.Set("body", "from-b")

	changed := a.Merge(b)
	assert.True(t, changed)

	title, ok := a.Get("title")
	require.True(t, ok)
	assert.Equal(t, "from-a", title)
	body, ok := a.Get("body")
	require.True(t, ok)
	assert.Equal(t, "from-b", body)
}

func TestDocumentMergeIsIdempotent(t *testing.T) {
	a := NewDocument(1)
	b := NewDocument(2)
	b.Set("body", "from-b")

	a.Merge(b)
	fieldsOnce := a.Keys()
	changed := a.Merge(b)
	assert.False(t, changed, "merging the same state twice must report no further change")
	assert.Equal(t, fieldsOnce, a.Keys())
}

func TestDocumentMergeConvergesEditCountAndParticipants(t *testing.T) {
	a := NewDocument(1)
	b := NewDocument(2)

	a.Set("x", "1")
	a.Join("alice")
	b.Set("y", "2")
	b.Join("bob")

	a.Merge(b)
	b.Merge(a)

	assert.Equal(t, a.EditCount(), b.EditCount())
	assert.ElementsMatch(t, a.Participants(), b.Participants())
	assert.Equal(t, a.Keys(), b.Keys())
}
