// Package observability provides Prometheus metrics for the pipeline.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	TransmissionsTotal    *prometheus.CounterVec
	TranscriptionsTotal   *prometheus.CounterVec
	ClassificationsTotal  *prometheus.CounterVec
	PublishAttemptsTotal  *prometheus.CounterVec
	RetentionDeletedTotal prometheus.Counter
	WSClients             prometheus.Gauge
	AudioClients          prometheus.Gauge
}

// NewMetrics creates a Metrics instance with a dedicated registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.TransmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_transmissions_total",
		Help: "Total number of transmissions emitted by the source",
	}, []string{"kind"})

	m.TranscriptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_transcriptions_total",
		Help: "Total number of transcriptions produced",
	}, []string{"mock"})

	m.ClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_classifications_total",
		Help: "Total number of classification verdicts produced",
	}, []string{"worth_posting"})

	m.PublishAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_publish_attempts_total",
		Help: "Total number of social publish attempts",
	}, []string{"outcome"})

	m.RetentionDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanner_retention_deleted_total",
		Help: "Total number of persisted entries removed by the retention sweep",
	})

	m.WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scanner_ws_clients",
		Help: "Number of connected structured-event subscribers",
	})

	m.AudioClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scanner_audio_clients",
		Help: "Number of connected audio listeners",
	})

	collectors := []prometheus.Collector{
		m.TransmissionsTotal,
		m.TranscriptionsTotal,
		m.ClassificationsTotal,
		m.PublishAttemptsTotal,
		m.RetentionDeletedTotal,
		m.WSClients,
		m.AudioClients,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	return m, nil
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
