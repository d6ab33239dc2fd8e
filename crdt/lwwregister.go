package crdt

// LWWRegister is a single-slot, last-write-wins register: (value, HLC
// timestamp, owning replica). On a timestamp tie, the registered entry with
// the lesser replica id wins during Merge; a local Assign breaks a same-tick
// tie the other way (toward the incoming replica), so that a write always
// has a chance to reach a peer instead of being silently suppressed by its
// own clock tick.
type LWWRegister[T any] struct {
	slot    lwwSlot[T]
	present bool
}

type lwwSlot[T any] struct {
	value     T
	timestamp HLC
	replica   ReplicaID
}

// Merge adopts other if it wins the tie-break: greater timestamp, or on a
// tie the lesser replica id. Satisfies Convergent so LWWRegister, its delta,
// and its MergeDelta path can all fold through MergeOption instead of
// hand-rolling the present/absent dance.
func (s *lwwSlot[T]) Merge(other *lwwSlot[T]) bool {
	switch {
	case s.timestamp > other.timestamp:
		return false
	case s.timestamp < other.timestamp:
		*s = *other
		return true
	default:
		if s.replica > other.replica {
			*s = *other
			return true
		}
		return false
	}
}

// NewLWWRegister returns an empty register.
func NewLWWRegister[T any]() LWWRegister[T] {
	return LWWRegister[T]{}
}

// IsEmpty reports whether the register has never been assigned.
func (r LWWRegister[T]) IsEmpty() bool { return !r.present }

// Assign writes value as id's newest write, stamped with the current HLC
// time. If the register already holds an entry stamped at least as new, the
// write is suppressed unless timestamps tie and id is greater than the
// stored replica (a local forward-favoring tie-break, distinct from Merge's
// tie-break - see LWWRegisterDelta.Merge).
func (r *LWWRegister[T]) Assign(id ReplicaID, value T) {
	now := Now()
	if !r.present {
		r.slot = lwwSlot[T]{value: value, timestamp: now, replica: id}
		r.present = true
		return
	}
	switch {
	case r.slot.timestamp > now:
		// stale write, ignore
	case r.slot.timestamp == now:
		if r.slot.replica < id {
			r.slot = lwwSlot[T]{value: value, timestamp: now, replica: id}
		}
	default:
		r.slot = lwwSlot[T]{value: value, timestamp: now, replica: id}
	}
}

// Value returns the currently-held value, if any.
func (r LWWRegister[T]) Value() (T, bool) {
	if !r.present {
		var zero T
		return zero, false
	}
	return r.slot.value, true
}

// Merge adopts other's slot if it wins the tie-break: greater timestamp, or
// on a tie the lesser replica id.
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) bool {
	return MergeOption[lwwSlot[T], *lwwSlot[T]](&r.slot, &r.present, &other.slot, other.present)
}

// LWWRegisterDelta is the delta carrier for LWWRegister: a copy of the
// currently-held slot, if any.
type LWWRegisterDelta[T any] struct {
	slot    lwwSlot[T]
	present bool
}

// Delta returns a copy of the current slot. LWWRegister has no accumulating
// buffer distinct from its state - the whole register already is the
// minimal delta - so Delta never destructively clears anything; it simply
// reports whether the register has ever been assigned.
func (r *LWWRegister[T]) Delta() (LWWRegisterDelta[T], bool) {
	if !r.present {
		return LWWRegisterDelta[T]{}, false
	}
	return LWWRegisterDelta[T]{slot: r.slot, present: true}, true
}

// MergeDelta folds a remote delta into r using the same tie-break as Merge.
func (r *LWWRegister[T]) MergeDelta(other *LWWRegisterDelta[T]) bool {
	return MergeOption[lwwSlot[T], *lwwSlot[T]](&r.slot, &r.present, &other.slot, other.present)
}

// Merge implements Convergent for LWWRegisterDelta.
func (d *LWWRegisterDelta[T]) Merge(other *LWWRegisterDelta[T]) bool {
	return MergeOption[lwwSlot[T], *lwwSlot[T]](&d.slot, &d.present, &other.slot, other.present)
}
