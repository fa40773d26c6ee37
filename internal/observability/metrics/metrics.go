package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upkeep_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upkeep_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upkeep_request_transitions_total",
		Help: "Count of maintenance request status transitions by from, to and result",
	}, []string{"from", "to", "result"})

	ratingsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upkeep_ratings_submitted_total",
		Help: "Count of worker rating submissions by result",
	}, []string{"result"})

	invoicesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upkeep_invoices_generated_total",
		Help: "Count of invoices rendered for download",
	})

	openRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "upkeep_open_requests",
		Help: "Number of maintenance requests not in a terminal state",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveTransition records a lifecycle transition attempt.
func ObserveTransition(from, to, result string) {
	requestTransitions.WithLabelValues(from, to, result).Inc()
}

// ObserveRating records a rating submission attempt.
func ObserveRating(result string) {
	ratingsSubmitted.WithLabelValues(result).Inc()
}

// ObserveInvoice records an invoice render.
func ObserveInvoice() {
	invoicesGenerated.Inc()
}

// SetOpenRequests sets the open request gauge to a specific count.
func SetOpenRequests(count int) {
	if count < 0 {
		count = 0
	}
	openRequests.Set(float64(count))
}
