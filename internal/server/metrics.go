package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

const metricsNamespace = "leapcheck"

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so several servers can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	uploads          *prometheus.CounterVec
	validations      *prometheus.CounterVec
	validationScore  prometheus.Histogram
	validationTime   prometheus.Histogram
	findings         *prometheus.CounterVec
	kbChunks         prometheus.Gauge
	kbReloads        *prometheus.CounterVec
	guidelineUploads prometheus.Counter
}

// NewMetrics registers the server collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_total",
			Help:      "Document uploads by endpoint and outcome",
		}, []string{"endpoint", "status"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validations_total",
			Help:      "Completed validations by endpoint",
		}, []string{"endpoint"}),
		validationScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "validation_score",
			Help:      "Distribution of compliance scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		validationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating a parsed document",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		findings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "findings_total",
			Help:      "Findings reported by id and severity",
		}, []string{"id", "severity"}),
		kbChunks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "kb_chunks",
			Help:      "Guideline chunks in the knowledge base",
		}),
		kbReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "kb_reloads_total",
			Help:      "Knowledge base rebuilds by result",
		}, []string{"result"}),
		guidelineUploads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "guideline_uploads_total",
			Help:      "Guideline files accepted through the upload endpoint",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeResult(endpoint string, result *core.ValidationResult) {
	m.validations.WithLabelValues(endpoint).Inc()
	m.validationScore.Observe(float64(result.Score))
	for _, f := range result.Findings {
		m.findings.WithLabelValues(string(f.ID), string(f.Severity.Normalize())).Inc()
	}
}
