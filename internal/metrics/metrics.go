// Package metrics provides Prometheus metrics for the forge engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	MutationsTotal   *prometheus.CounterVec
	SavesTotal       *prometheus.CounterVec
	SaveDuration     prometheus.Histogram
	SaveBytesWritten prometheus.Gauge
	ArtifactsActive  *prometheus.GaugeVec
	ErrorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_mutations_total",
				Help: "Total document mutations by collection kind and operation.",
			},
			[]string{"kind", "op"},
		),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_saves_total",
				Help: "Total persistence attempts by trigger and status.",
			},
			[]string{"trigger", "status"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "forge_save_duration_seconds",
				Help:    "Serialization-plus-write duration of persistence attempts.",
				Buckets: prometheus.DefBuckets,
			},
		),
		SaveBytesWritten: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forge_save_bytes_written",
				Help: "Compressed size of the most recent successful save.",
			},
		),
		ArtifactsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forge_artifacts_active",
				Help: "Current number of artifacts per collection kind.",
			},
			[]string{"kind"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.MutationsTotal)
	reg.MustRegister(m.SavesTotal)
	reg.MustRegister(m.SaveDuration)
	reg.MustRegister(m.SaveBytesWritten)
	reg.MustRegister(m.ArtifactsActive)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMutation increments the mutation counter.
func (m *Metrics) RecordMutation(kind, op string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(kind, op).Inc()
}

// RecordSave increments the save counter and observes its duration.
func (m *Metrics) RecordSave(trigger, status string, seconds float64) {
	if m == nil {
		return
	}
	m.SavesTotal.WithLabelValues(trigger, status).Inc()
	m.SaveDuration.Observe(seconds)
}

// SetSaveBytes records the compressed size of the latest successful save.
func (m *Metrics) SetSaveBytes(n int) {
	if m == nil {
		return
	}
	m.SaveBytesWritten.Set(float64(n))
}

// SetArtifacts sets the live artifact count for one collection.
func (m *Metrics) SetArtifacts(kind string, n int) {
	if m == nil {
		return
	}
	m.ArtifactsActive.WithLabelValues(kind).Set(float64(n))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
