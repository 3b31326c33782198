package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modmail"

// Metrics owns the prometheus collectors of the bot and its web app. It satisfies
// dispatcher.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	handlerFailures  *prometheus.CounterVec
	relayed          *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
}

// NewMetrics builds the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Count of dispatched events by outcome.",
			},
			[]string{"event", "outcome"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent running the handlers of an event.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"event"},
		),
		handlerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handler_failures_total",
				Help:      "Count of handlers that returned an error or panicked.",
			},
			[]string{"event", "handler"},
		),
		relayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relayed_messages_total",
				Help:      "Count of messages relayed by direction.",
			},
			[]string{"direction"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Count of HTTP requests by route and status.",
			},
			[]string{"path", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Count of HTTP errors by error code.",
			},
			[]string{"path", "method", "code"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.dispatches,
		m.dispatchDuration,
		m.handlerFailures,
		m.relayed,
		m.requests,
		m.requestDuration,
		m.errors,
	)
	return m
}

// DispatchObserved records one finished dispatch.
func (m *Metrics) DispatchObserved(event, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(event, outcome).Inc()
	m.dispatchDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}

// HandlerFailed records a failing handler.
func (m *Metrics) HandlerFailed(event, handler string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(event, handler).Inc()
}

// RecordRelay counts a relayed message.
func (m *Metrics) RecordRelay(direction string) {
	if m == nil {
		return
	}
	m.relayed.WithLabelValues(direction).Inc()
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
