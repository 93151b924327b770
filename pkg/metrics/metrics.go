package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session lifecycle metrics
	SessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_sessions_created_total",
			Help: "Total number of upload sessions created",
		},
	)

	SessionsClosedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_sessions_closed_total",
			Help: "Total number of upload sessions closed successfully",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swgts_sessions_active",
			Help: "Number of sessions currently live in the store",
		},
	)

	// Admission metrics
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swgts_uploads_total",
			Help: "Total number of upload requests by outcome",
		},
		[]string{"outcome"},
	)

	UploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swgts_upload_duration_seconds",
			Help:    "Time to validate, price, and admit one upload batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	BytesAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_bytes_accepted_total",
			Help: "Cumulative accepted sequence bytes across all sessions",
		},
	)

	BytesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_bytes_dropped_total",
			Help: "Cumulative bytes dropped for exceeding the per-read size limit",
		},
	)

	PendingBytesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swgts_pending_bytes_total",
			Help: "Sum of pending_bytes across all observed sessions at last sample",
		},
	)

	// Work queue metrics
	JobsEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_jobs_enqueued_total",
			Help: "Total number of jobs published to the work queue",
		},
	)

	EnqueueDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swgts_enqueue_duration_seconds",
			Help:    "Time to commit a job's pipeline transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Close/flush metrics
	CloseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swgts_close_duration_seconds",
			Help:    "Time to run the close/flush algorithm for a session",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushIOErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_flush_io_errors_total",
			Help: "Total number of per-file write failures during close",
		},
	)

	// Transport metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swgts_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swgts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	SocketConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swgts_socket_connections_active",
			Help: "Number of currently open message-transport connections",
		},
	)

	SocketMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swgts_socket_messages_total",
			Help: "Total number of socket messages by direction and type",
		},
		[]string{"direction", "type"},
	)

	// Store connectivity
	StorePingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swgts_store_ping_duration_seconds",
			Help:    "Latency of store readiness pings",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreUnavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swgts_store_unavailable_total",
			Help: "Total number of operations that failed with StoreUnavailable",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsCreatedTotal,
		SessionsClosedTotal,
		SessionsActive,
		UploadsTotal,
		UploadDuration,
		BytesAcceptedTotal,
		BytesDroppedTotal,
		PendingBytesGauge,
		JobsEnqueuedTotal,
		EnqueueDuration,
		CloseDuration,
		FlushIOErrorsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SocketConnectionsActive,
		SocketMessagesTotal,
		StorePingDuration,
		StoreUnavailableTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
