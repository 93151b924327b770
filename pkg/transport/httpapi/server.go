package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/session"
)

// DataRequester is the subset of the socket Hub the request-data endpoint
// needs: pushing a dataRequest message into a session's room.
type DataRequester interface {
	RequestData(sessionID string, bytes int) error
}

// Server is the request/response transport. It wraps http.ServeMux the way
// the teacher's health HTTP server does, registering one handler per route
// and sharing the admission.Controller code path with the socket transport.
type Server struct {
	Controller *admission.Controller
	Registry   *session.Registry
	Requester  DataRequester

	MaximumPendingBytes int
	Version             string
	LaunchTime          time.Time

	mux    *http.ServeMux
	server *http.Server
}

// NewServer builds the route table. Call Start to begin serving.
func NewServer(s *Server) *Server {
	mux := http.NewServeMux()
	s.mux = mux

	mux.HandleFunc("GET /server-status", withMiddleware("server-status", s.handleServerStatus))
	mux.HandleFunc("POST /context/create", withMiddleware("context-create", s.handleCreateContext))
	mux.HandleFunc("POST /context/{id}/reads", withMiddleware("context-reads", s.handleUpload))
	mux.HandleFunc("POST /context/{id}/close", withMiddleware("context-close", s.handleClose))
	mux.HandleFunc("POST /context/{id}/request-data", withMiddleware("context-request-data", s.handleRequestData))
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start begins serving on addr. It blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the route table for tests (httptest.NewServer /
// httptest.NewRecorder callers).
func (s *Server) Handler() http.Handler {
	return s.mux
}
