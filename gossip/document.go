// Package gossip is a small anti-entropy replicator: it plays the role of
// the "Network" collaborator the crdt package assumes exists (out of scope
// as a requirement, but exercised here so the library runs end to end).
//
// It replaces the teacher's bespoke WebSocket hub and RGA text CRDT with a
// hub of CRDT-backed key/value documents replicated by periodic state-based
// merge, matching the shape of crdtcollab's session.Hub/session.Session
// without carrying over its unfinished RGA implementation (out of spec
// scope - see DESIGN.md).
package gossip

import (
	"sync"

	"github.com/Polqt/crdt/crdt"
)

// fieldMap is the concrete ORMap instantiation backing a Document's key/value
// fields: string keys, each holding an independently converging
// LWWRegister[string].
type fieldMap = crdt.ORMap[string, crdt.LWWRegister[string], crdt.LWWRegisterDelta[string], *crdt.LWWRegister[string]]

// Document is a small collaboratively-edited key/value record: a map of
// last-write-wins string fields, a shared edit counter, and the set of
// participants currently known to be editing it. Every field in it is a
// crdt type, so two replicas of the same document always converge under
// Merge regardless of delivery order.
type Document struct {
	mu           sync.RWMutex
	replica      crdt.ReplicaID
	fields       fieldMap
	edits        crdt.PNCounter
	participants crdt.ORSet[string]
}

// NewDocument returns an empty document owned locally by replica.
func NewDocument(replica crdt.ReplicaID) *Document {
	return &Document{
		replica:      replica,
		fields:       crdt.NewORMap[string, crdt.LWWRegister[string], crdt.LWWRegisterDelta[string], *crdt.LWWRegister[string]](),
		edits:        crdt.NewPNCounter(),
		participants: crdt.NewORSet[string](),
	}
}

// Set writes value into key, creating the field if it did not exist yet,
// and bumps the shared edit counter.
func (d *Document) Set(key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields.Entry(key).
		AndModify(d.replica, func(r *crdt.LWWRegister[string]) { r.Assign(d.replica, value) }).
		OrInsertWith(d.replica, func() crdt.LWWRegister[string] {
			r := crdt.NewLWWRegister[string]()
			r.Assign(d.replica, value)
			return r
		})
	d.edits.Add(d.replica, 1)
}

// Get returns the current value of key, if the field exists and has ever
// been assigned.
func (d *Document) Get(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	reg, ok := d.fields.Get(key)
	if !ok {
		return "", false
	}
	return reg.Value()
}

// Keys returns the document's live field names in ascending order.
func (d *Document) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.Keys()
}

// Join records participant as present in the document, attributed to d's own
// replica. Use JoinAs to attribute the add to a specific session's replica.
func (d *Document) Join(participant string) {
	d.JoinAs(d.replica, participant)
}

// JoinAs records participant as present in the document, attributed to
// replica.
func (d *Document) JoinAs(replica crdt.ReplicaID, participant string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants.Add(replica, participant)
}

// Leave removes participant from the document.
func (d *Document) Leave(participant string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants.Remove(participant)
}

// Participants returns the currently known participants in ascending order.
func (d *Document) Participants() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.participants.Values()
}

// EditCount materializes the shared edit counter.
func (d *Document) EditCount() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.edits.Value()
}

// Merge folds other's state into d: fields merge recursively per key,
// participants merge under observed-remove semantics, and the edit counter
// merges as a PNCounter. Reports whether d's observable state changed.
//
// Merge holds d for writing and other for reading for its whole duration,
// rather than copying other's maps out under a brief lock: ORMap, PNCounter
// and ORSet all hold map-typed fields, so a shallow copy would alias the
// same backing maps and reading them after releasing other's lock would
// race with concurrent edits. The Hub only ever drives replication through
// one direction at a time per pair, so this never nests into a lock-order
// inversion; Merge does not attempt deadlock-free lock ordering beyond that.
func (d *Document) Merge(other *Document) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	changed := d.fields.Merge(&other.fields)
	if d.edits.Merge(&other.edits) {
		changed = true
	}
	if d.participants.Merge(&other.participants) {
		changed = true
	}
	return changed
}
