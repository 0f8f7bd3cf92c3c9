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
			Name: "hellsphere_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hellsphere_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	intelCategoryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellsphere_intel_category_total",
			Help: "Intel category fetches by outcome.",
		},
		[]string{"category", "outcome"},
	)

	refreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellsphere_refresh_cycles_total",
			Help: "Overlay refresh cycles by outcome.",
		},
		[]string{"outcome"},
	)

	refreshDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hellsphere_refresh_duration_seconds",
			Help:    "Overlay refresh cycle duration in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	refreshSitesOK = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hellsphere_refresh_sites_ok",
			Help: "Sites successfully sampled in the last refresh cycle.",
		},
	)

	tleDatasetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hellsphere_tle_dataset_count",
			Help: "Number of TLE records in the active dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hellsphere_tle_dataset_age_seconds",
			Help: "Age of the active TLE dataset in seconds.",
		},
	)

	upstreamBreakerOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hellsphere_upstream_breaker_open",
			Help: "1 when the named upstream circuit breaker is open.",
		},
		[]string{"upstream"},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellsphere_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hellsphere_streams_active",
			Help: "Currently connected SSE clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hellsphere_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellsphere_stream_errors_total",
			Help: "SSE stream errors by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		intelCategoryTotal,
		refreshCyclesTotal,
		refreshDurationSeconds,
		refreshSitesOK,
		tleDatasetCount,
		tleDatasetAgeSeconds,
		upstreamBreakerOpen,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncIntelCategory records one category fetch outcome ("ok" or "degraded").
func IncIntelCategory(category, outcome string) {
	intelCategoryTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveRefreshCycle records one refresh cycle.
func ObserveRefreshCycle(duration time.Duration, sitesOK int, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	refreshCyclesTotal.WithLabelValues(outcome).Inc()
	refreshDurationSeconds.Observe(duration.Seconds())
	refreshSitesOK.Set(float64(sitesOK))
}

// SetTLEDatasetCount sets the active dataset record count gauge.
func SetTLEDatasetCount(n int) {
	tleDatasetCount.Set(float64(n))
}

// SetTLEDatasetAge sets the active dataset age gauge.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// SetBreakerOpen flags the named upstream breaker state.
func SetBreakerOpen(upstream string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	upstreamBreakerOpen.WithLabelValues(upstream).Set(v)
}

// IncStreamConnections records a stream connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages counts one sent SSE data message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// IncStreamErrors counts one stream error of the given kind.
func IncStreamErrors(kind string) {
	streamErrorsTotal.WithLabelValues(kind).Inc()
}

// knownRoutes are the exact paths we serve; anything else collapses to
// "other" to keep label cardinality bounded against scanner traffic.
var knownRoutes = map[string]bool{
	"/":                      true,
	"/healthz":               true,
	"/readyz":                true,
	"/metrics":               true,
	"/api/v1/intel":          true,
	"/api/v1/overlay":        true,
	"/api/v1/geocode":        true,
	"/api/v1/geofence":       true,
	"/api/v1/tle/metadata":   true,
	"/api/v1/stream/overlay": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/imagery/") {
		return "/imagery/{tile}"
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

// Unwrap lets http.ResponseController reach the underlying writer so SSE
// flushing works through the middleware chain.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
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
