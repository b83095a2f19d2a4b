// Package metrics provides Prometheus collectors for fund movements and
// ledger gateway traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sigil_earn"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	legsTotal      *prometheus.CounterVec
	legDuration    *prometheus.HistogramVec
	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	flowsTotal     *prometheus.CounterVec
	stuckTotal     prometheus.Counter
	droppedEvents  prometheus.Counter
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		legsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legs_total",
			Help:      "Export and import legs by ledger and outcome.",
		}, []string{"kind", "ledger", "outcome"}),
		legDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leg_duration_seconds",
			Help:      "Wall time from fee lookup to terminal status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 240, 480},
		}, []string{"kind", "ledger"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Ledger gateway calls by method, ledger and result.",
		}, []string{"method", "ledger", "result"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Ledger gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "ledger"}),
		flowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_total",
			Help:      "Orchestrated intents by final state.",
		}, []string{"intent", "state"}),
		stuckTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funds_stuck_total",
			Help:      "Transfers whose export committed but import did not.",
		}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Lifecycle events dropped because the observer fell behind.",
		}),
	}

	reg.MustRegister(
		m.legsTotal,
		m.legDuration,
		m.gatewayCalls,
		m.gatewayLatency,
		m.flowsTotal,
		m.stuckTotal,
		m.droppedEvents,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordLeg records the outcome of one export or import leg.
func (m *Metrics) RecordLeg(kind, ledger, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.legsTotal.WithLabelValues(kind, ledger, outcome).Inc()
	m.legDuration.WithLabelValues(kind, ledger).Observe(duration.Seconds())
}

// RecordGatewayCall records a gateway call with its duration and success status.
func (m *Metrics) RecordGatewayCall(method, ledger string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayCalls.WithLabelValues(method, ledger, result).Inc()
	m.gatewayLatency.WithLabelValues(method, ledger).Observe(duration.Seconds())
}

// RecordFlow records the terminal state of an orchestrated intent.
func (m *Metrics) RecordFlow(intent, state string) {
	if m == nil {
		return
	}
	m.flowsTotal.WithLabelValues(intent, state).Inc()
}

// RecordStuck records funds left in transit.
func (m *Metrics) RecordStuck() {
	if m == nil {
		return
	}
	m.stuckTotal.Inc()
}

// RecordDroppedEvent records a lifecycle event the observer never received.
func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

// WriteTextfile writes the current values in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
