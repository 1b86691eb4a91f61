package observability

import (
	"context"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	StepExecutions *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec
	ToolCalls      *prometheus.CounterVec
	Runs           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "infrascope_step_executions_total",
				Help: "Total number of step executions by outcome",
			},
			[]string{"step", "outcome"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "infrascope_step_duration_seconds",
				Help:    "Duration of step executions",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"step"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "infrascope_tool_calls_total",
				Help: "Total number of capability invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "infrascope_runs_total",
				Help: "Total number of finished runs by status",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.StepExecutions, m.StepDuration, m.ToolCalls, m.Runs)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			step := string(e.Step)
			m.StepExecutions.WithLabelValues(step, outcome(e.Err != nil)).Inc()
			m.StepDuration.WithLabelValues(step).Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.ToolCalls.WithLabelValues(e.ToolName, outcome(e.IsError)).Inc()
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			switch e.Type {
			case domain.EventRunSucceeded:
				m.Runs.WithLabelValues(string(domain.RunSucceeded)).Inc()
			case domain.EventRunFailed:
				m.Runs.WithLabelValues(string(domain.RunFailed)).Inc()
			}
		},
	}
}

func outcome(failed bool) string {
	if failed {
		return outcomeError
	}
	return outcomeOK
}
