package gossip

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Polqt/crdt/crdt"
)

// Hub owns every Document being replicated in this process, and assigns
// each connecting session its own crdt.ReplicaID, under which the session's
// presence in the participant set is recorded. Field edits made through
// Document.Set are attributed to the document's own replica. It mirrors
// crdtcollab's session.Hub (one hub, many named documents, many sessions
// per document) without carrying over the RGA/WebSocket machinery that
// backed it - see DESIGN.md for that disposition.
type Hub struct {
	log *zap.SugaredLogger

	mu        sync.RWMutex
	documents map[string]*Document

	nextReplica uint32
}

// NewHub returns an empty hub logging through log.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:       log.Sugar(),
		documents: make(map[string]*Document),
	}
}

// nextReplicaID hands out a fresh replica id, unique within this Hub, for a
// newly created document or joining session. Each Hub counts from 1, so two
// Hubs hand out the same ids.
func (h *Hub) nextReplicaID() crdt.ReplicaID {
	return crdt.ReplicaID(atomic.AddUint32(&h.nextReplica, 1))
}

// Document returns the named document, creating it (owned by a freshly
// minted replica id) if it does not exist yet.
func (h *Hub) Document(name string) *Document {
	h.mu.RLock()
	doc, ok := h.documents[name]
	h.mu.RUnlock()
	if ok {
		return doc
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if doc, ok := h.documents[name]; ok {
		return doc
	}
	doc = NewDocument(h.nextReplicaID())
	h.documents[name] = doc
	h.log.Infow("document created", "document", name)
	return doc
}

// Documents returns the names of every document currently tracked.
func (h *Hub) Documents() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.documents))
	for name := range h.documents {
		names = append(names, name)
	}
	return names
}

// Session represents one connected participant: a freshly minted identity
// attached to one document, under which its presence is recorded.
type Session struct {
	ID       string
	Document string
	Replica  crdt.ReplicaID
}

// Join creates a new session against docName, adding its id to that
// document's participant set.
func (h *Hub) Join(docName string) *Session {
	doc := h.Document(docName)
	sessionID := uuid.NewString()
	replica := h.nextReplicaID()
	doc.JoinAs(replica, sessionID)
	h.log.Infow("session joined", "session", sessionID, "document", docName)
	return &Session{ID: sessionID, Document: docName, Replica: replica}
}

// Leave removes sess from its document's participant set.
func (h *Hub) Leave(sess *Session) {
	doc := h.Document(sess.Document)
	doc.Leave(sess.ID)
	h.log.Infow("session left", "session", sess.ID, "document", sess.Document)
}

// Replicate merges remote's documents into h's, by matching document name,
// logging how many documents actually changed as a result. Documents that
// exist only on the remote side are adopted wholesale. Intended to run
// periodically (anti-entropy) rather than per-edit.
func (h *Hub) Replicate(remote *Hub) {
	remote.mu.RLock()
	names := make([]string, 0, len(remote.documents))
	for name := range remote.documents {
		names = append(names, name)
	}
	remote.mu.RUnlock()

	changedCount := 0
	for _, name := range names {
		remote.mu.RLock()
		remoteDoc := remote.documents[name]
		remote.mu.RUnlock()

		h.mu.Lock()
		localDoc, ok := h.documents[name]
		if !ok {
			localDoc = NewDocument(h.nextReplicaID())
			h.documents[name] = localDoc
		}
		h.mu.Unlock()

		if localDoc.Merge(remoteDoc) {
			changedCount++
		}
	}
	h.log.Infow("replication round complete", "documents_changed", changedCount, "documents_considered", len(names))
}
