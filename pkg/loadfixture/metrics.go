package loadfixture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "loadfixture_"

type Metrics struct {
	tests              *prometheus.CounterVec
	simulationDuration prometheus.Histogram
	assertions         *prometheus.CounterVec
}

// NewMetrics creates the fixture metrics, registering them with reg unless reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	testsOpts := prometheus.CounterOpts{
		Name: MetricsPrefix + "tests_total",
		Help: "Number of tests executed grouped by outcome",
	}
	simulationDurationOpts := prometheus.HistogramOpts{
		Name:    MetricsPrefix + "simulation_duration_seconds",
		Help:    "Time from the submission of a simulation to its completion",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}
	assertionsOpts := prometheus.CounterOpts{
		Name: MetricsPrefix + "assertions_total",
		Help: "Number of assertions evaluated grouped by result",
	}
	return &Metrics{
		tests:              factory.NewCounterVec(testsOpts, []string{"outcome"}),
		simulationDuration: factory.NewHistogram(simulationDurationOpts),
		assertions:         factory.NewCounterVec(assertionsOpts, []string{"result"}),
	}
}

func (m *Metrics) RecordOutcome(outcome *Outcome) {
	if m == nil {
		return
	}
	m.tests.With(map[string]string{"outcome": outcome.Status.String()}).Inc()
	for _, r := range outcome.Assertions {
		result := "passed"
		if !r.Passed {
			result = "failed"
		}
		m.assertions.With(map[string]string{"result": result}).Inc()
	}
}

func (m *Metrics) RecordSimulationDuration(seconds float64) {
	if m == nil {
		return
	}
	m.simulationDuration.Observe(seconds)
}
