package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iss_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iss_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tleAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iss_tle_age_seconds",
			Help: "Age of the currently loaded element set in seconds.",
		},
	)

	tleEpochAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iss_tle_epoch_age_seconds",
			Help: "Time since the epoch of the currently loaded element set in seconds.",
		},
	)

	upstreamFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iss_upstream_fetch_total",
			Help: "Outbound feed fetches by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	passPredictionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iss_pass_prediction_duration_seconds",
			Help:    "Wall time of a full pass prediction over the visibility window.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	propagationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iss_propagation_duration_seconds",
			Help:    "Duration of a single orbital state evaluation.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(tleAgeSeconds)
	prometheus.MustRegister(tleEpochAgeSeconds)
	prometheus.MustRegister(upstreamFetchTotal)
	prometheus.MustRegister(passPredictionSeconds)
	prometheus.MustRegister(propagationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetTLEAge updates the element-set age gauge (seconds since fetch).
func SetTLEAge(seconds float64) {
	tleAgeSeconds.Set(seconds)
}

// SetTLEEpochAge updates the element-set epoch age gauge (seconds since epoch).
func SetTLEEpochAge(seconds float64) {
	tleEpochAgeSeconds.Set(seconds)
}

// RecordUpstreamFetch counts an outbound feed fetch. Outcome is one of
// "ok", "error", "open" (circuit breaker rejected the call).
func RecordUpstreamFetch(source, outcome string) {
	upstreamFetchTotal.WithLabelValues(source, outcome).Inc()
}

// RecordPassPrediction records the wall time of a pass prediction run.
func RecordPassPrediction(d time.Duration) {
	passPredictionSeconds.Observe(d.Seconds())
}

// RecordPropagation records the duration of one orbital state evaluation.
func RecordPropagation(d time.Duration) {
	propagationSeconds.Observe(d.Seconds())
}

// knownRoutes are the exact paths the server registers. Anything else is
// collapsed to "other" so bots scanning for /wp-admin and friends cannot
// blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":              true,
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
	"/api/v1/status": true,
	"/api/v1/people": true,
	"/api/v1/passes": true,
}

// normalizeRoute maps a request path to a bounded set of metric labels.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/people/") {
		return "/api/v1/people/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
