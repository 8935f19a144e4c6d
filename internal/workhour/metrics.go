package workhour

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yqwork_workhour_transitions_total",
			Help: "Work hour record status transitions by target status.",
		}, []string{"to"}),
	}
}

func (m *Metrics) observe(to RecordStatus, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transitions.WithLabelValues(to.String()).Add(float64(n))
}
