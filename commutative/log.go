package commutative

import "github.com/Polqt/crdt/crdt"

// Log turns a single replica's commutative operations into a causally
// ordered, gap-free stream: it stamps locally produced events with
// monotonic per-origin and per-replica sequence numbers, and on receipt
// buffers anything that arrives out of order until the missing
// predecessors show up.
//
// This is the piece original_source's event.rs assumes exists (it defines
// origin_seq_nr/local_seq_nr on Event but ships no consumer for them) - the
// sequencing and reassembly behavior here is this module's own, built to
// use those fields the way their names imply.
type Log[T any] struct {
	self     crdt.ReplicaID
	localSeq uint64
	expected map[crdt.ReplicaID]uint64
	pending  map[crdt.ReplicaID]map[uint64]Event[T]
}

// NewLog returns a log that produces events under replica id self.
func NewLog[T any](self crdt.ReplicaID) *Log[T] {
	return &Log[T]{
		self:     self,
		expected: make(map[crdt.ReplicaID]uint64),
		pending:  make(map[crdt.ReplicaID]map[uint64]Event[T]),
	}
}

// Append stamps value as the log owner's next operation, causally
// positioned after vecTime, and returns the Event ready for broadcast.
func (l *Log[T]) Append(vecTime crdt.VClock, value T) Event[T] {
	seq := l.expected[l.self] + 1
	l.expected[l.self] = seq
	l.localSeq++
	return Event[T]{
		Origin:    l.self,
		OriginSeq: seq,
		LocalSeq:  l.localSeq,
		SysTime:   crdt.Now(),
		VecTime:   vecTime,
		Value:     value,
	}
}

// Receive admits a remote event into the log. It returns the contiguous run
// of events (starting at ev) that is now ready to apply, in origin-seq
// order, and whether ev itself was buffered awaiting an earlier gap.
//
// A stale duplicate (ev.OriginSeq at or before what's already been
// delivered for that origin) is dropped silently - Receive returns (nil,
// false) for it. An event that is next in sequence always comes back as the
// first element of the returned run, even when nothing buffered follows it.
func (l *Log[T]) Receive(ev Event[T]) ([]Event[T], bool) {
	next := l.expected[ev.Origin] + 1
	switch {
	case ev.OriginSeq < next:
		return nil, false
	case ev.OriginSeq > next:
		bucket, ok := l.pending[ev.Origin]
		if !ok {
			bucket = make(map[uint64]Event[T])
			l.pending[ev.Origin] = bucket
		}
		bucket[ev.OriginSeq] = ev
		return nil, true
	}

	ready := []Event[T]{ev}
	l.expected[ev.Origin] = ev.OriginSeq
	seq := ev.OriginSeq
	bucket := l.pending[ev.Origin]
	for {
		seq++
		buffered, ok := bucket[seq]
		if !ok {
			break
		}
		ready = append(ready, buffered)
		delete(bucket, seq)
		l.expected[ev.Origin] = seq
	}
	return ready, false
}

// Pending reports how many out-of-order events from origin are currently
// buffered awaiting earlier predecessors.
func (l *Log[T]) Pending(origin crdt.ReplicaID) int {
	return len(l.pending[origin])
}
