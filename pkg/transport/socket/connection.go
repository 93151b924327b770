package socket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Connection is one upgraded WebSocket, handling every session a client
// has joined over it. Writes are serialized by writeMu since gorilla's
// Conn does not allow concurrent writers.
type Connection struct {
	ws   *websocket.Conn
	hub  *Hub
	ctrl *admission.Controller
	reg  *session.Registry

	writeMu sync.Mutex
	joined  map[string]bool
	mu      sync.Mutex
}

// Serve upgrades r into a WebSocket and runs its message loop until the
// client disconnects. It returns once the connection is closed and every
// room it joined has been left.
func Serve(w http.ResponseWriter, r *http.Request, hub *Hub, ctrl *admission.Controller, reg *session.Registry) error {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Connection{ws: ws, hub: hub, ctrl: ctrl, reg: reg, joined: make(map[string]bool)}

	metrics.SocketConnectionsActive.Inc()
	defer func() {
		metrics.SocketConnectionsActive.Dec()
		c.leaveAll()
		_ = ws.Close()
	}()

	ws.SetReadLimit(32 * 1024 * 1024)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	go c.pingLoop(stopPing)
	defer close(stopPing)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return nil
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		c.dispatch(r, env)
	}
}

func (c *Connection) pingLoop(stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (c *Connection) send(raw []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.TextMessage, raw)
}

func (c *Connection) dispatch(r *http.Request, env envelope) {
	switch env.Type {
	case typeCreateContext:
		var msg createContextMsg
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return
		}
		c.handleCreateContext(r, msg)
	case typeDataUpload:
		var msg dataUploadMsg
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return
		}
		c.handleDataUpload(r, msg)
	case typeCloseContext:
		var msg closeContextMsg
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return
		}
		c.handleCloseContext(r, msg)
	}
}

func (c *Connection) leaveAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.joined))
	for id := range c.joined {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.hub.Leave(id, c)
	}
}

func (c *Connection) markJoined(sessionID string) {
	c.mu.Lock()
	c.joined[sessionID] = true
	c.mu.Unlock()
	c.hub.Join(sessionID, c)
}

// handleCreateContext creates the session, joins it to this connection's
// room, reads the published request sizing, and fans out the initial
// dataRequest burst the back-pressure protocol calls for.
func (c *Connection) handleCreateContext(r *http.Request, msg createContextMsg) {
	id, err := c.reg.Create(r.Context(), msg.Filenames)
	if err != nil {
		raw, encErr := encode(typeContextCreateError, contextCreationErrorMsg{Message: err.Error()})
		if encErr == nil {
			c.send(raw)
		}
		return
	}

	metrics.SessionsCreatedTotal.Inc()
	c.markJoined(id.String())

	factor, size := c.reg.RequestSizing(r.Context())
	for i := 0; i < factor; i++ {
		_ = c.hub.RequestData(id.String(), size)
	}

	log.WithSessionID(id.String()).Debug().Int("pairs", len(msg.Filenames)).Msg("context created over socket")
}

// handleDataUpload runs the same Controller.Admit path the HTTP transport
// uses; failures surface as a dataUploadError addressed to the room rather
// than a status code.
func (c *Connection) handleDataUpload(r *http.Request, msg dataUploadMsg) {
	metrics.SocketMessagesTotal.WithLabelValues("in", typeDataUpload).Inc()

	id, err := parseSessionID(msg.ContextID)
	if err != nil {
		c.hub.publish(msg.ContextID, typeDataUploadError, dataUploadErrorMsg{
			ContextID: msg.ContextID,
			Message:   "malformed context id",
		})
		return
	}

	_, err = c.ctrl.Admit(r.Context(), id, msg.Data, c.reg.MaximumPendingBytes, time.Now())
	if err != nil {
		c.hub.publish(msg.ContextID, typeDataUploadError, dataUploadErrorMsg{Message: err.Error()})
	}
}

// handleCloseContext runs the close/flush algorithm and reports the
// outcome to the room, leaving the session open on ErrStillPending.
func (c *Connection) handleCloseContext(r *http.Request, msg closeContextMsg) {
	id, err := parseSessionID(msg.ContextID)
	if err != nil {
		c.hub.publish(msg.ContextID, typeContextCloseError, contextCloseErrorMsg{
			ContextID: msg.ContextID,
			Message:   "malformed context id",
		})
		return
	}

	result, err := c.reg.Close(r.Context(), id, log.WithSessionID(msg.ContextID))
	if err != nil {
		c.hub.publish(msg.ContextID, typeContextCloseError, contextCloseErrorMsg{
			ContextID: msg.ContextID,
			Message:   err.Error(),
		})
		return
	}

	metrics.SessionsClosedTotal.Inc()
	c.hub.publish(msg.ContextID, typeContextClosed, contextClosedMsg{
		ContextID:      msg.ContextID,
		SavedReads:     result.SavedReadIDs,
		ProcessedReads: result.ProcessedReads,
	})
}
