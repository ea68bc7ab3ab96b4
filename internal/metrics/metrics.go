package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TransfersRequested counts opened transfer requests.
	TransfersRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "twx_transfers_requested_total",
			Help: "Total number of cross-project transfer requests opened",
		},
	)

	// TransfersCompleted counts completed transfers by completion path
	// (approved_receipt, direct_link).
	TransfersCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twx_transfers_completed_total",
			Help: "Total number of transfers completed by completion path",
		},
		[]string{"via"},
	)

	// TransfersPending is the number of open pending_approval records.
	TransfersPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "twx_transfers_pending",
			Help: "Number of transfer records awaiting dual approval",
		},
	)

	// InspectionsOverdue is the number of elements with no recent
	// inspection in their current project, per the sweep job.
	InspectionsOverdue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "twx_inspections_overdue",
			Help: "Number of elements whose current-project inspection is missing or stale",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, TransfersRequested, TransfersCompleted, TransfersPending, InspectionsOverdue)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /elements/123 -> /elements/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncTransfersRequested increments the opened-transfers counter.
func IncTransfersRequested() {
	TransfersRequested.Inc()
}

// IncTransfersCompleted increments the completed-transfers counter for the given path.
func IncTransfersCompleted(via string) {
	TransfersCompleted.WithLabelValues(via).Inc()
}

// SetTransfersPending sets the pending-transfers gauge.
func SetTransfersPending(n int) {
	TransfersPending.Set(float64(n))
}

// SetInspectionsOverdue sets the overdue-inspections gauge.
func SetInspectionsOverdue(n int) {
	InspectionsOverdue.Set(float64(n))
}
