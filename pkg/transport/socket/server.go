package socket

import (
	"net/http"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/session"
)

// Handler returns the http.Handler that upgrades incoming requests to
// WebSocket connections and runs their message loop against hub, ctrl, and
// reg. Mount it at whatever path the deployment assigns the socket
// transport (e.g. "/ws").
func Handler(hub *Hub, ctrl *admission.Controller, reg *session.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := Serve(w, r, hub, ctrl, reg); err != nil {
			log.WithComponent("socket").Warn().Err(err).Msg("connection upgrade failed")
		}
	})
}
