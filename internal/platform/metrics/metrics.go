package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the interaction core.
type Metrics struct {
	InteractionsStarted  prometheus.Counter
	InteractionDecisions *prometheus.CounterVec
	GrantsFinalized      *prometheus.CounterVec
	FinishRedirects      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		InteractionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantor_interactions_started_total",
			Help: "Total number of interaction flows started",
		}),
		InteractionDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantor_interaction_decisions_total",
			Help: "Total number of interaction decisions recorded by the consent provider",
		}, []string{"choice"}),
		GrantsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantor_grants_finalized_total",
			Help: "Total number of grants reaching a terminal state",
		}, []string{"reason"}),
		FinishRedirects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantor_finish_redirects_total",
			Help: "Total number of finish redirects issued to clients",
		}, []string{"result"}),
	}
}

// IncInteractionsStarted increments the started-interactions counter.
func (m *Metrics) IncInteractionsStarted() {
	if m == nil {
		return
	}
	m.InteractionsStarted.Inc()
}

// IncInteractionDecision records an accept or reject decision.
func (m *Metrics) IncInteractionDecision(choice string) {
	if m == nil {
		return
	}
	m.InteractionDecisions.WithLabelValues(choice).Inc()
}

// IncGrantFinalized records a grant finalization by reason.
func (m *Metrics) IncGrantFinalized(reason string) {
	if m == nil {
		return
	}
	m.GrantsFinalized.WithLabelValues(reason).Inc()
}

// IncFinishRedirect records a finish redirect by result.
func (m *Metrics) IncFinishRedirect(result string) {
	if m == nil {
		return
	}
	m.FinishRedirects.WithLabelValues(result).Inc()
}
