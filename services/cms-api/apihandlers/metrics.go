package apihandlers

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the domain counters next to the generic HTTP metrics. A nil *Metrics records nothing.
type Metrics struct {
	authAttempts   *prometheus.CounterVec
	engagements    *prometheus.CounterVec
	contentChanges *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms",
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts partitioned by method and result.",
		}, []string{"method", "result"}),
		engagements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms",
			Name:      "engagements_total",
			Help:      "Recorded engagements partitioned by content kind and engagement type.",
		}, []string{"kind", "engagement"}),
		contentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms",
			Name:      "content_changes_total",
			Help:      "Content writes partitioned by content kind and action.",
		}, []string{"kind", "action"}),
	}
	for _, c := range []prometheus.Collector{m.authAttempts, m.engagements, m.contentChanges} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) authAttempt(method string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.authAttempts.WithLabelValues(method, result).Inc()
}

func (m *Metrics) engagement(kind string, engagement string) {
	if m == nil {
		return
	}
	m.engagements.WithLabelValues(kind, engagement).Inc()
}

func (m *Metrics) contentChange(kind string, action string) {
	if m == nil {
		return
	}
	m.contentChanges.WithLabelValues(kind, action).Inc()
}
