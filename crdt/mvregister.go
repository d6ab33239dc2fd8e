package crdt

import "cmp"

// MVRegister is a multi-value register: concurrent Assigns are never
// silently dropped as LWWRegister would drop them. Instead every maximal
// concurrent write survives until a later Assign (which causally dominates
// everything it has observed) replaces them all at once.
//
// Built directly on Kernel: each held value is tagged with the dot of the
// Assign that produced it, so a concurrent Assign on another replica and a
// later causally-dependent Assign on this one compose correctly under
// observed-remove merge.
type MVRegister[T cmp.Ordered] struct {
	kernel Kernel[T]
}

// NewMVRegister returns an empty register.
func NewMVRegister[T cmp.Ordered]() MVRegister[T] {
	return MVRegister[T]{kernel: NewKernel[T]()}
}

// Assign replaces every value currently held with value alone, tagged with a
// fresh dot from id. Any value written concurrently on another replica
// (one this Assign has not observed) survives the merge alongside it - see
// Values.
func (r *MVRegister[T]) Assign(id ReplicaID, value T) {
	r.kernel.Clear()
	r.kernel.Insert(id, value)
}

// Values returns every maximal concurrent value, in ascending order. A
// register that was never assigned returns an empty slice; a register with
// no concurrent writers returns exactly one value.
func (r MVRegister[T]) Values() []T {
	return r.kernel.Keys()
}

// IsEmpty reports whether the register has never been assigned (or was
// assigned and then causally superseded with no replacement - which cannot
// happen through Assign alone, but can after a Merge that only delivers
// removals).
func (r MVRegister[T]) IsEmpty() bool { return r.kernel.IsEmpty() }

// Merge merges the underlying kernels, so that concurrent Assigns both
// survive and a later causally-dependent Assign wins outright.
func (r *MVRegister[T]) Merge(other *MVRegister[T]) bool {
	return r.kernel.Merge(&other.kernel)
}

// MVRegisterDelta is the delta carrier for MVRegister.
type MVRegisterDelta[T cmp.Ordered] struct {
	delta KernelDelta[T]
}

// Delta moves the accumulated kernel delta out of r.
func (r *MVRegister[T]) Delta() (MVRegisterDelta[T], bool) {
	d, ok := r.kernel.Delta()
	if !ok {
		return MVRegisterDelta[T]{}, false
	}
	return MVRegisterDelta[T]{delta: d}, true
}

// MergeDelta folds a remote delta into r's full state.
func (r *MVRegister[T]) MergeDelta(other *MVRegisterDelta[T]) bool {
	return r.kernel.MergeDelta(&other.delta)
}

// Merge implements Convergent for MVRegisterDelta.
func (d *MVRegisterDelta[T]) Merge(other *MVRegisterDelta[T]) bool {
	return d.delta.Merge(&other.delta)
}
