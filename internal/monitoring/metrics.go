// Package monitoring collects Prometheus metrics for the scan pipeline and
// the HTTP/WebSocket surface.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Scan metrics
	ScansTotal     *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	RequestsSeen   prometheus.Counter
	ViolationsSeen *prometheus.CounterVec
	TrackersSeen   prometheus.Counter

	// Geo metrics
	GeoLookups *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry, so tests can
// construct as many as they need.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		startTime: time.Now(),
		registry:  registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netwatch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "netwatch_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "netwatch_ws_connections",
				Help: "Currently connected observers",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netwatch_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netwatch_scans_total",
				Help: "Total number of scans by outcome",
			},
			[]string{"outcome"},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "netwatch_scan_duration_seconds",
				Help:    "Wall time of completed scans",
				Buckets: []float64{1, 5, 10, 30, 60, 120},
			},
		),
		RequestsSeen: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "netwatch_intercepted_requests_total",
				Help: "Total intercepted browser requests",
			},
		),
		ViolationsSeen: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netwatch_violations_total",
				Help: "Total violations by severity",
			},
			[]string{"severity"},
		),
		TrackersSeen: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "netwatch_trackers_total",
				Help: "Total requests flagged as trackers",
			},
		),

		GeoLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netwatch_geo_lookups_total",
				Help: "Geolocation resolutions by result",
			},
			[]string{"result"}, // hit, miss, skip, failure
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "netwatch_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	go m.updateUptime()
	return m
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScan records a finished scan and its outcome ("complete"/"failed").
func (m *Metrics) RecordScan(outcome string, duration time.Duration) {
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(duration.Seconds())
}
