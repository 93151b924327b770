package httpapi

import (
	"net/http"
	"strconv"

	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
)

// statusRecorder captures the status code a handler writes, since
// http.ResponseWriter has no getter for it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps a handler with request logging and Prometheus
// timing, labeled by route the way the teacher's interceptor labeled gRPC
// methods.
func withMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		timer.ObserveDurationVec(metrics.HTTPRequestDuration, route)
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()

		log.WithComponent("httpapi").Debug().
			Str("route", route).
			Str("method", r.Method).
			Int("status", rec.status).
			Dur("duration", timer.Duration()).
			Msg("request handled")
	}
}
