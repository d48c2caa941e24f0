package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "submitd_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route pattern and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submitd_submissions_total",
		Help: "Submissions by outcome (accepted, rejected, failed).",
	}, []string{"outcome"})

	submissionFiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "submitd_submission_files",
		Help:    "File records produced per accepted submission.",
		Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000},
	})
)

// Metrics records a latency histogram per route pattern. Using the chi
// route pattern rather than the raw path keeps label cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		httpRequestDuration.WithLabelValues(
			r.Method, pattern, strconv.Itoa(wrapped.statusCode),
		).Observe(time.Since(start).Seconds())
	})
}
