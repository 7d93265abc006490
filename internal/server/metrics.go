package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the alignment API.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	alignmentsTotal        prometheus.Counter
	alignmentFailuresTotal prometheus.Counter
	inFlightRequests       prometheus.Gauge
	cachedWindows          prometheus.Gauge
}

// NewMetrics creates and registers Prometheus metrics for the API.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoteclip_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoteclip_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	alignmentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoteclip_alignments_total",
		Help: "Total number of quotes successfully located in a subtitle track",
	})
	alignmentFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoteclip_alignment_failures_total",
		Help: "Total number of quotes that could not be located",
	})
	inFlightRequests := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoteclip_in_flight_requests",
		Help: "Number of HTTP requests currently being served",
	})
	cachedWindows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoteclip_cached_windows",
		Help: "Number of alignment windows in the cache database",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		alignmentsTotal,
		alignmentFailuresTotal,
		inFlightRequests,
		cachedWindows,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		alignmentsTotal:        alignmentsTotal,
		alignmentFailuresTotal: alignmentFailuresTotal,
		inFlightRequests:       inFlightRequests,
		cachedWindows:          cachedWindows,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncAlignments increments the successful alignment counter.
func (m *Metrics) IncAlignments() {
	m.alignmentsTotal.Inc()
}

// IncAlignmentFailures increments the failed alignment counter.
func (m *Metrics) IncAlignmentFailures() {
	m.alignmentFailuresTotal.Inc()
}

// SetCachedWindows sets the cached windows gauge.
func (m *Metrics) SetCachedWindows(n int64) {
	m.cachedWindows.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware returns chi-compatible middleware that records request
// count and error count (status >= 400) in the given Metrics.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.inFlightRequests.Inc()
			defer m.inFlightRequests.Dec()
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			m.IncRequests()
			if wrap.status >= 400 {
				m.IncErrors()
			}
		})
	}
}
