// Package metrics provides Prometheus metrics for the mdtree server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdtree_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mdtree_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Tree metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdtree_mutations_total",
			Help: "Total tree mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	indexRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdtree_index_refresh_duration_seconds",
			Help:    "Time to walk the document root",
			Buckets: prometheus.DefBuckets,
		},
	)

	indexDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mdtree_index_documents",
			Help: "Number of documents in the index",
		},
	)

	// Preview metrics
	previewResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdtree_preview_resolutions_total",
			Help: "Preview requests by fallback tier reached",
		},
		[]string{"tier"},
	)

	previewGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdtree_preview_generated_total",
			Help: "Preview artifacts generated, skipped or failed",
		},
		[]string{"format", "result"},
	)

	rateLimitHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdtree_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
		[]string{"tier"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. route is the route
// pattern, not the raw path, to bound cardinality.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMutation records the outcome of a tree mutation.
func RecordMutation(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	mutationsTotal.WithLabelValues(op, result).Inc()
}

// RecordIndexRefresh records an index refresh.
func RecordIndexRefresh(documents int, duration time.Duration) {
	indexDocuments.Set(float64(documents))
	indexRefreshDuration.Observe(duration.Seconds())
}

// RecordPreviewResolution records the fallback tier a preview request reached.
func RecordPreviewResolution(tier string) {
	previewResolutionsTotal.WithLabelValues(tier).Inc()
}

// RecordPreviewGenerated records one artifact generation attempt.
func RecordPreviewGenerated(format string, skipped bool, err error) {
	result := "generated"
	switch {
	case err != nil:
		result = "error"
	case skipped:
		result = "skipped"
	}
	previewGeneratedTotal.WithLabelValues(format, result).Inc()
}

// RecordRateLimitHit records a 429.
func RecordRateLimitHit(tier string) {
	rateLimitHitsTotal.WithLabelValues(tier).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics. It must
// wrap the http.ServeMux directly so the matched pattern is known once the
// request is served.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
