package socket

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/session"
)

// room is the set of connections joined to one session. Almost always a
// single connection, but nothing prevents a client from opening more than
// one socket against the same context.
type room struct {
	mu      sync.RWMutex
	members map[*Connection]bool
}

func newRoom() *room {
	return &room{members: make(map[*Connection]bool)}
}

func (rm *room) join(c *Connection) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.members[c] = true
}

func (rm *room) leave(c *Connection) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.members, c)
}

func (rm *room) empty() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members) == 0
}

func (rm *room) broadcast(raw []byte) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for c := range rm.members {
		c.send(raw)
	}
}

// Hub owns one room per live session, keyed by session id string. Unlike a
// global event broker it never has to fan a message out to every
// connection: each session's traffic is confined to its own room.
type Hub struct {
	Registry *session.Registry

	mu    sync.RWMutex
	rooms map[string]*room
}

// NewHub creates an empty Hub. Registry is used to annotate outgoing
// dataRequest messages with the session's current backpressure state.
func NewHub(reg *session.Registry) *Hub {
	return &Hub{Registry: reg, rooms: make(map[string]*room)}
}

// Join adds a connection to sessionID's room, creating it if necessary.
func (h *Hub) Join(sessionID string, c *Connection) {
	h.mu.Lock()
	rm, ok := h.rooms[sessionID]
	if !ok {
		rm = newRoom()
		h.rooms[sessionID] = rm
	}
	h.mu.Unlock()
	rm.join(c)
}

// Leave removes a connection from sessionID's room, discarding the room
// once it is empty.
func (h *Hub) Leave(sessionID string, c *Connection) {
	h.mu.Lock()
	rm, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}
	rm.leave(c)
	if rm.empty() {
		h.mu.Lock()
		delete(h.rooms, sessionID)
		h.mu.Unlock()
	}
}

// publish marshals a typed message and broadcasts it to sessionID's room.
// A session with no joined connections (already disconnected, or never
// created over the socket transport) is silently a no-op.
func (h *Hub) publish(sessionID, msgType string, payload interface{}) {
	h.mu.RLock()
	rm, ok := h.rooms[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	raw, err := encode(msgType, payload)
	if err != nil {
		return
	}
	metrics.SocketMessagesTotal.WithLabelValues("out", msgType).Inc()
	rm.broadcast(raw)
}

// RequestData implements httpapi.DataRequester: it lets POST
// /context/<id>/request-data push a dataRequest into a session's room
// without the HTTP transport knowing anything about sockets. bufferFill
// and processedReads are looked up fresh so the message reports the
// session's current backpressure state, not a stale snapshot.
func (h *Hub) RequestData(sessionID string, bytes int) error {
	msg := dataRequestMsg{ContextID: sessionID, Bytes: bytes}

	if h.Registry != nil {
		if id, err := uuid.Parse(sessionID); err == nil {
			ctx := context.Background()
			if pending, err := h.Registry.PendingBytes(ctx, id); err == nil {
				msg.BufferFill = pending
			}
			if processed, err := h.Registry.ProcessedReads(ctx, id); err == nil {
				msg.ProcessedReads = processed
			}
		}
	}

	h.publish(sessionID, typeDataRequest, msg)
	return nil
}
