// Package metric exposes prometheus collectors for the simulation harness:
// scenario run counts, failures and consensus recommendations. The server
// mounts them on /metrics; everything is optional and nil-safe so library
// users without a metrics pipeline pay nothing.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the harness collectors. A nil *Metrics is a valid no-op
// receiver for every method.
type Metrics struct {
	ScenarioRuns     *prometheus.CounterVec
	ConsensusReached *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer
// (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ScenarioRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentdesk",
			Subsystem: "simulation",
			Name:      "scenario_runs_total",
			Help:      "Scenario executions by terminal status.",
		}, []string{"status"}),
		ConsensusReached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentdesk",
			Subsystem: "judge",
			Name:      "consensus_total",
			Help:      "Consensus verdicts by recommendation.",
		}, []string{"recommendation"}),
	}
	reg.MustRegister(m.ScenarioRuns, m.ConsensusReached)
	return m
}

// ObserveScenarioRun records one scenario execution outcome.
func (m *Metrics) ObserveScenarioRun(status string) {
	if m == nil {
		return
	}
	m.ScenarioRuns.WithLabelValues(status).Inc()
}

// ObserveConsensus records one consensus recommendation.
func (m *Metrics) ObserveConsensus(recommendation string) {
	if m == nil {
		return
	}
	m.ConsensusReached.WithLabelValues(recommendation).Inc()
}
