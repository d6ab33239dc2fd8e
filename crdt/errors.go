package crdt

import "errors"

// ErrQuotaExceeded is returned by BCounter.Add and BCounter.Transfer when the
// requested decrement or transfer would exceed the replica's locally-known
// quota. The operation is a no-op on state; the caller may retry after
// receiving more quota via Transfer or after merging in peer state.
var ErrQuotaExceeded = errors.New("crdt: quota exceeded")

// ErrNoDelta is returned by callers that choose to treat an empty delta
// buffer as an error rather than checking the accompanying bool. Delta()
// methods in this package return (zero, false) rather than this error
// directly; it exists for callers that prefer the error-returning idiom.
var ErrNoDelta = errors.New("crdt: no delta buffered")
