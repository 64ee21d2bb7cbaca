package sending

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts routed messages and throttled attempts.
type Metrics struct {
	Messages  *prometheus.CounterVec
	Throttled prometheus.Counter
}

func NewMetrics() *Metrics {
	const (
		namespace = "roost"
		subsystem = "sending"
	)

	return &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_total",
			Help:      "Count of messages routed to an entity, by entity kind and result",
		}, []string{"kind", "result"}),

		Throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "throttled_total",
			Help:      "Count of send attempts rejected because the broker was busy",
		}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Messages,
		m.Throttled,
	}
}
