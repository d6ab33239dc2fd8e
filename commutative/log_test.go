package commutative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdt/crdt"
)

func TestLogAppendSequencesOwnEvents(t *testing.T) {
	log := NewLog[string](1)
	e1 := log.Append(crdt.NewVClock(), "a")
	e2 := log.Append(crdt.NewVClock(), "b")

	assert.Equal(t, uint64(1), e1.OriginSeq)
	assert.Equal(t, uint64(2), e2.OriginSeq)
	assert.Equal(t, crdt.ReplicaID(1), e1.Origin)
}

func TestLogReceiveInOrderIsImmediatelyReady(t *testing.T) {
	log := NewLog[string](1)
	ev := Event[string]{Origin: 2, OriginSeq: 1, Value: "x"}
	ready, buffered := log.Receive(ev)
	assert.False(t, buffered)
	require.Len(t, ready, 1)
	assert.Equal(t, "x", ready[0].Value)
}

func TestLogReceiveBuffersGapAndFlushesOnArrival(t *testing.T) {
	log := NewLog[string](1)

	ev3 := Event[string]{Origin: 2, OriginSeq: 3, Value: "c"}
	ready, buffered := log.Receive(ev3)
	assert.Nil(t, ready)
	assert.True(t, buffered)
	assert.Equal(t, 1, log.Pending(2))

	ev1 := Event[string]{Origin: 2, OriginSeq: 1, Value: "a"}
	ready, buffered = log.Receive(ev1)
	assert.False(t, buffered)
	require.Len(t, ready, 1, "seq 2 hasn't arrived yet, so only seq 1 is ready")
	assert.Equal(t, "a", ready[0].Value)
	assert.Equal(t, 1, log.Pending(2), "seq 3 is still buffered awaiting seq 2")

	ev2 := Event[string]{Origin: 2, OriginSeq: 2, Value: "b"}
	ready, buffered = log.Receive(ev2)
	assert.False(t, buffered)
	require.Len(t, ready, 2, "seq 2 arriving closes the gap, releasing seq 2 and the buffered seq 3 together")
	assert.Equal(t, "b", ready[0].Value)
	assert.Equal(t, "c", ready[1].Value)
	assert.Equal(t, 0, log.Pending(2))
}

func TestLogReceiveDropsStaleDuplicate(t *testing.T) {
	log := NewLog[string](1)
	log.Receive(Event[string]{Origin: 2, OriginSeq: 1, Value: "a"})

	ready, buffered := log.Receive(Event[string]{Origin: 2, OriginSeq: 1, Value: "a"})
	assert.Nil(t, ready)
	assert.False(t, buffered)
}
