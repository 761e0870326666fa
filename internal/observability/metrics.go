package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics groups the collectors updated by the hedge engine.
type EngineMetrics struct {
	operations  *prometheus.CounterVec
	conversions *prometheus.CounterVec
	oracle      *prometheus.CounterVec
	salaryRuns  *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Engine returns the lazily-initialised engine metrics registered on the
// default Prometheus registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hedge",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hedge",
				Subsystem: "engine",
				Name:      "conversions_total",
				Help:      "Conversions recorded, segmented by local currency and trigger.",
			}, []string{"currency", "trigger"}),
			oracle: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hedge",
				Subsystem: "oracle",
				Name:      "reads_total",
				Help:      "Oracle reads segmented by call and result (ok, absent, error).",
			}, []string{"call", "result"}),
			salaryRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hedge",
				Subsystem: "engine",
				Name:      "salary_runs_total",
				Help:      "Salary runs segmented by decision reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.conversions,
			engineRegistry.oracle,
			engineRegistry.salaryRuns,
		)
	})
	return engineRegistry
}

// Operation records the outcome of an engine entry point. outcome is "ok"
// or the name of the failure.
func (m *EngineMetrics) Operation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// Conversion counts a committed conversion.
func (m *EngineMetrics) Conversion(currency, trigger string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(currency, trigger).Inc()
}

// OracleRead counts an oracle call by result.
func (m *EngineMetrics) OracleRead(call, result string) {
	if m == nil {
		return
	}
	m.oracle.WithLabelValues(call, result).Inc()
}

// SalaryRun counts a salary run by decision reason.
func (m *EngineMetrics) SalaryRun(reason string) {
	if m == nil {
		return
	}
	m.salaryRuns.WithLabelValues(reason).Inc()
}

// OperationCounter exposes the counter for op/outcome, for tests.
func (m *EngineMetrics) OperationCounter(op, outcome string) prometheus.Counter {
	return m.operations.WithLabelValues(op, outcome)
}

// ConversionCounter exposes the counter for currency/trigger, for tests.
func (m *EngineMetrics) ConversionCounter(currency, trigger string) prometheus.Counter {
	return m.conversions.WithLabelValues(currency, trigger)
}
