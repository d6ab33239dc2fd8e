package crdt

import "cmp"

// ORSet is an observed-remove set: elements can be added and removed by any
// replica, and concurrent add/remove pairs resolve add-wins - a remove only
// suppresses an add it had already observed.
type ORSet[T cmp.Ordered] struct {
	kernel Kernel[T]
}

// NewORSet returns an empty set.
func NewORSet[T cmp.Ordered]() ORSet[T] {
	return ORSet[T]{kernel: NewKernel[T]()}
}

// Add inserts value, tagged with a fresh dot from id. Adding a value the set
// already contains still allocates a new dot, strengthening the element's
// claim against a concurrent remove that has not observed this add.
func (s *ORSet[T]) Add(id ReplicaID, value T) {
	s.kernel.Insert(id, value)
}

// Remove drops value, along with every dot currently attached to it. A
// concurrent Add of the same value on another replica that this replica has
// not observed survives the eventual merge.
func (s *ORSet[T]) Remove(value T) {
	s.kernel.Remove(value)
}

// Contains reports whether value is currently a member.
func (s ORSet[T]) Contains(value T) bool {
	_, ok := s.kernel.entries[value]
	return ok
}

// Len returns the number of members.
func (s ORSet[T]) Len() int { return s.kernel.Len() }

// IsEmpty reports whether the set has no members.
func (s ORSet[T]) IsEmpty() bool { return s.kernel.IsEmpty() }

// Values returns the members in ascending order.
func (s ORSet[T]) Values() []T { return s.kernel.Keys() }

// Merge merges the underlying kernels under observed-remove semantics.
func (s *ORSet[T]) Merge(other *ORSet[T]) bool {
	return s.kernel.Merge(&other.kernel)
}

// ORSetDelta is the delta carrier for ORSet.
type ORSetDelta[T cmp.Ordered] struct {
	delta KernelDelta[T]
}

// Delta moves the accumulated kernel delta out of s.
func (s *ORSet[T]) Delta() (ORSetDelta[T], bool) {
	d, ok := s.kernel.Delta()
	if !ok {
		return ORSetDelta[T]{}, false
	}
	return ORSetDelta[T]{delta: d}, true
}

// MergeDelta folds a remote delta into s's full state.
func (s *ORSet[T]) MergeDelta(other *ORSetDelta[T]) bool {
	return s.kernel.MergeDelta(&other.delta)
}

// Merge implements Convergent for ORSetDelta.
func (d *ORSetDelta[T]) Merge(other *ORSetDelta[T]) bool {
	return d.delta.Merge(&other.delta)
}
