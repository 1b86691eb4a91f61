package runtime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/aretw0/infrascope/pkg/schema"
)

const reportJSON = `{"cpu":[10,12,90]}`

// stubTools counts every capability invocation.
type stubTools struct {
	report string
	err    error
	calls  atomic.Int32
}

func (s *stubTools) ReadJSONFile(_ context.Context, _ string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return s.report, nil
}

func (s *stubTools) DetectAnomalies(_ context.Context, report string) (string, error) {
	s.calls.Add(1)
	return "anomalies:" + report, nil
}

func (s *stubTools) ProposeOptimizations(_ context.Context, report string) (string, error) {
	s.calls.Add(1)
	return "optimizations:" + report, nil
}

// stubGenerator answers by schema name.
type stubGenerator struct {
	anomalies       map[string]any
	recommendations map[string]any
	anomaliesErr    error
	recommendErr    error
	calls           atomic.Int32
}

func (g *stubGenerator) Generate(_ context.Context, _ string, desc schema.Descriptor) (map[string]any, error) {
	g.calls.Add(1)
	switch desc.Name {
	case domain.AnomaliesSchema.Name:
		if g.anomaliesErr != nil {
			return nil, g.anomaliesErr
		}
		return clonePayload(g.anomalies), nil
	case domain.RecommendationsSchema.Name:
		if g.recommendErr != nil {
			return nil, g.recommendErr
		}
		return clonePayload(g.recommendations), nil
	}
	return nil, errors.New("unexpected schema " + desc.Name)
}

func clonePayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func oneAnomaly() map[string]any {
	return map[string]any{
		"anomalies": []any{map[string]any{
			"metric":           "cpu",
			"timestamp":        []any{"t3"},
			"value":            []any{"90"},
			"description":      "spike",
			"potential_impact": "degraded service",
		}},
		"summary": "1 anomaly found",
	}
}

func oneRecommendation() map[string]any {
	return map[string]any{
		"recommendations": []any{map[string]any{
			"title":           "Scale out",
			"description":     "Add replicas",
			"justification":   map[string]any{"metric": "cpu", "evidence": []any{}},
			"action":          map[string]any{"type": "scale_out", "steps": []any{}},
			"target":          "cpu < 70%",
			"priority":        "P1",
			"expected_impact": "-20% cpu",
			"risks":           []any{},
			"verification":    map[string]any{"method": "canary", "rollback": "scale in"},
		}},
		"summary": "1 recommendation",
	}
}

func happyCollaborators() (*stubTools, *stubGenerator) {
	return &stubTools{report: reportJSON},
		&stubGenerator{anomalies: oneAnomaly(), recommendations: oneRecommendation()}
}

// recorder collects lifecycle events; safe for concurrent use.
type recorder struct {
	mu      sync.Mutex
	entered []domain.StepID
	left    []domain.StepID
	tools   []string
	reports []domain.EventType
	errors  []string
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.entered = append(r.entered, e.Step)
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.left = append(r.left, e.Step)
		},
		OnToolCall: func(_ context.Context, e *domain.ToolEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.tools = append(r.tools, e.ToolName)
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.reports = append(r.reports, e.Type)
			if e.Error != "" {
				r.errors = append(r.errors, e.Error)
			}
		},
	}
}

// registryWithout builds a full registry-backed toolset missing the named tools.
func registryWithout(names ...string) *registry.Toolset {
	reg := registry.NewRegistry()
	reg.Register(domain.ToolReadJSONFile, func(context.Context, map[string]any) (any, error) { return reportJSON, nil })
	reg.Register(domain.ToolDetectAnomalies, func(context.Context, map[string]any) (any, error) { return "a", nil })
	reg.Register(domain.ToolProposeOptimizations, func(context.Context, map[string]any) (any, error) { return "o", nil })
	for _, n := range names {
		reg.Unregister(n)
	}
	return registry.NewToolset(reg)
}
