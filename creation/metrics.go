package creation

import "github.com/prometheus/client_golang/prometheus"

// Reconciliation outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeRaced     = "raced"
	OutcomeRecovered = "recovered"
	OutcomeSwallowed = "swallowed"
	OutcomeFailed    = "failed"
)

// Metrics counts reconciliations per entity kind and outcome.
type Metrics struct {
	Reconciliations *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	const (
		namespace = "roost"
		subsystem = "creation"
	)

	return &Metrics{
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconciliations_total",
			Help:      "Count of entity reconciliations by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) observe(kind, outcome string) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Reconciliations,
	}
}
