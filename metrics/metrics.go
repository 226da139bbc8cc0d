package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablekit/restaurant-directory/environment"
)

// RequestsCounterMetric measures request consumption per resource
func RequestsCounterMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_requests_total",
			Help: "Total number of requests by method, service and resource.",
		},
		[]string{"method", "service", "resource"},
	)
}

// RequestsLatencyMetric measures an SLA "95% of all requests must be made in
// less than 100ms" and to plot average response latency and the apdex score.
// bucket limits are in seconds...
func RequestsLatencyMetric() *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_requests_latency",
			Help:    "Histogram of time to reply to request.",
			Buckets: []float64{.005, .01, .02, .04, .08, .16, .32},
		},
		[]string{"method", "service", "resource"},
	)
}

// StoreCommandsCounterMetric counts commands issued to the external store by
// structure and operation.
func StoreCommandsCounterMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_store_commands_total",
			Help: "Total number of store commands by structure and operation.",
		},
		[]string{"structure", "operation"},
	)
}

// Metrics. Only those metrics specified are returned. The GoCollector and
// ProcessCollector metrics are omitted by using our own registry.
type Metrics struct {
	serviceName string
	port        string
	registry    *prometheus.Registry
	labels      []latencyObserveOffset
	log         Logger
}

type MetricsOption func(*Metrics)

func WithLabel(label string, offset int) MetricsOption {
	return func(m *Metrics) {
		m.labels = append(m.labels, latencyObserveOffset{label: label, offset: offset})
	}
}

func New(log Logger, serviceName string, opts ...MetricsOption) *Metrics {
	m := Metrics{
		log:         log,
		serviceName: strings.ToLower(serviceName),
		registry:    prometheus.NewRegistry(),
		labels:      []latencyObserveOffset{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return &m
}

func NewFromEnvironment(log Logger, serviceName string, opts ...MetricsOption) *Metrics {
	useMetrics := environment.GetTruthy("USE_METRICS")
	if !useMetrics {
		return nil
	}
	port := environment.GetOrFatal("METRICS_PORT")
	m := New(
		log,
		serviceName,
		opts...,
	)
	m.port = port
	return m
}

func (m *Metrics) String() string {
	return m.serviceName
}

func (m *Metrics) Register(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

func (m *Metrics) Port() string {
	if m != nil {
		return m.port
	}
	return ""
}

// NewPromHandler - this handler is used on the endpoint that serves the
// metrics, which is provided on a different port to the service.
// The default InstrumentMetricHandler is suppressed.
func (m *Metrics) NewPromHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
