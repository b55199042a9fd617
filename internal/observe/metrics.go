package observe

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HendryAvila/autorelate/internal/autolink"
)

// Metrics holds the linker's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Candidates *prometheus.CounterVec
	Passes     prometheus.Counter
	PassErrors prometheus.Counter
	Created    prometheus.Counter
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate references processed, by outcome",
		}, []string{"outcome"}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Synchronization passes run",
		}),
		PassErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_pass_errors_total",
			Help:      "Passes whose edited issue could not be loaded",
		}),
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relations_created_total",
			Help:      "Relates edges created by the linker",
		}),
	}

	registry.MustRegister(
		m.Candidates,
		m.Passes,
		m.PassErrors,
		m.Created,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Pre-create every outcome series so dashboards see zeros.
	for _, o := range autolink.Outcomes {
		m.Candidates.WithLabelValues(string(o))
	}
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CandidateProcessed implements autolink.Sink.
func (m *Metrics) CandidateProcessed(_ int64, res autolink.Result) {
	m.Candidates.WithLabelValues(string(res.Outcome)).Inc()
	if res.Outcome == autolink.OutcomeCreated {
		m.Created.Inc()
	}
}

// PassCompleted implements autolink.Sink.
func (m *Metrics) PassCompleted(report *autolink.Report) {
	m.Passes.Inc()
	if report.Err != nil {
		m.PassErrors.Inc()
	}
}
