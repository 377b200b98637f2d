package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine.
type Metrics struct {
	// Exchange metrics: every HTTP exchange with the portal.
	ExchangesTotal   *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec

	// Stage metrics
	StagesTotal   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Workflow metrics
	WorkflowsTotal    *prometheus.CounterVec
	WorkflowsInFlight prometheus.Gauge

	// Classification metrics
	SelectionsTotal *prometheus.CounterVec
}

// New creates a metrics collector registered with reg. A nil registerer uses
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingpilot_exchanges_total",
				Help: "Total portal HTTP exchanges",
			},
			[]string{"kind", "outcome"},
		),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filingpilot_exchange_duration_seconds",
				Help:    "Portal exchange duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		StagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingpilot_stages_total",
				Help: "Stage executions by stage number and outcome",
			},
			[]string{"stage", "outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filingpilot_stage_duration_seconds",
				Help:    "Stage execution duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		WorkflowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingpilot_workflows_total",
				Help: "Completed workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		WorkflowsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filingpilot_workflows_in_flight",
				Help: "Workflow runs currently executing",
			},
		),
		SelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingpilot_selections_total",
				Help: "Classification term resolutions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveExchange records one portal exchange.
func (m *Metrics) ObserveExchange(kind, outcome string, d time.Duration) {
	m.ExchangesTotal.WithLabelValues(kind, outcome).Inc()
	m.ExchangeDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveStage records one stage execution.
func (m *Metrics) ObserveStage(stage, outcome string, d time.Duration) {
	m.StagesTotal.WithLabelValues(stage, outcome).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
