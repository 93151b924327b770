// Package bootstrap wires a fully assembled ingest daemon from a Config:
// it dials the state store, publishes the backpressure configuration
// filter workers read, and hands back every component cmd/swgts-ingestd
// needs to start serving.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/config"
	"github.com/flo1101/swgts-ingest/pkg/health"
	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/queue"
	"github.com/flo1101/swgts-ingest/pkg/session"
	"github.com/flo1101/swgts-ingest/pkg/store"
	"github.com/flo1101/swgts-ingest/pkg/transport/httpapi"
	"github.com/flo1101/swgts-ingest/pkg/transport/socket"
)

// Handle bundles every live component a running daemon holds, so cmd can
// wire transports and drive an ordered shutdown without reaching back
// into bootstrap internals.
type Handle struct {
	Config     *config.Config
	Store      store.Store
	Registry   *session.Registry
	Controller *admission.Controller
	Publisher  *queue.Publisher
	Hub        *socket.Hub
	Collector  *metrics.Collector
	LaunchTime time.Time
}

// Run connects to the state store, publishes the session registry's
// config:* keys so filter workers read the same sizing values this
// process just started with, and returns a Handle ready to serve.
//
// A store that cannot be reached is a fatal condition: per the backing
// service's own bootstrap contract there is no way to serve traffic
// without it, so Run returns the dial error rather than retrying.
func Run(ctx context.Context, cfg *config.Config) (*Handle, error) {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	logConfig(cfg)

	checker := health.NewTCPChecker(cfg.RedisServer.Addr).WithTimeout(5 * time.Second)
	if result := checker.Check(ctx); !result.Healthy {
		return nil, fmt.Errorf("bootstrap: state store unreachable at %s: %s", cfg.RedisServer.Addr, result.Message)
	}

	st, err := store.Dial(ctx, cfg.RedisServer.Addr, cfg.RedisServer.Password, cfg.RedisServer.DB)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: dialing state store: %w", err)
	}

	reg := &session.Registry{
		Store:               st,
		MaximumPendingBytes: cfg.MaximumPendingBytes,
		ContextTimeout:      cfg.ContextTimeout,
		UploadDirectory:     cfg.UploadDirectory,
		HandsOff:            cfg.HandsOff,
	}

	if err := reg.PublishConfig(ctx, cfg.RequestSizeFactor, cfg.RequestSize); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("bootstrap: publishing config: %w", err)
	}

	publisher := &queue.Publisher{Store: st}
	ctrl := &admission.Controller{Registry: reg, Publisher: publisher}
	hub := socket.NewHub(reg)
	collector := metrics.NewCollector(st)

	log.WithComponent("bootstrap").Info().
		Str("redis_addr", cfg.RedisServer.Addr).
		Int("maximum_pending_bytes", cfg.MaximumPendingBytes).
		Int("request_size_factor", cfg.RequestSizeFactor).
		Int("request_size", cfg.RequestSize).
		Msg("ingest daemon bootstrapped")

	return &Handle{
		Config:     cfg,
		Store:      st,
		Registry:   reg,
		Controller: ctrl,
		Publisher:  publisher,
		Hub:        hub,
		Collector:  collector,
		LaunchTime: time.Now(),
	}, nil
}

// HTTPServer builds the request/response transport against this handle's
// components, wiring the Hub in as the DataRequester so
// POST /context/<id>/request-data can push into a joined socket room.
func (h *Handle) HTTPServer(version string) *httpapi.Server {
	return httpapi.NewServer(&httpapi.Server{
		Controller:          h.Controller,
		Registry:            h.Registry,
		Requester:           h.Hub,
		MaximumPendingBytes: h.Config.MaximumPendingBytes,
		Version:             version,
		LaunchTime:          h.LaunchTime,
	})
}

// Shutdown stops the background collector and releases the store
// connection. It does not stop the HTTP/socket servers; cmd owns those.
func (h *Handle) Shutdown() error {
	h.Collector.Stop()
	return h.Store.Close()
}

// logConfig emits every configured value at debug level, mirroring the
// original Flask app's startup dump of its config object.
func logConfig(cfg *config.Config) {
	logger := log.WithComponent("bootstrap")
	logger.Debug().
		Int("maximum_pending_bytes", cfg.MaximumPendingBytes).
		Dur("context_timeout", cfg.ContextTimeout).
		Bool("hands_off", cfg.HandsOff).
		Str("upload_directory", cfg.UploadDirectory).
		Int("request_size_factor", cfg.RequestSizeFactor).
		Int("request_size", cfg.RequestSize).
		Str("redis_addr", cfg.RedisServer.Addr).
		Int("redis_db", cfg.RedisServer.DB).
		Str("http_listen", cfg.HTTPListen).
		Str("metrics_listen", cfg.MetricsListen).
		Msg("loaded configuration")
}
