package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/aretw0/infrascope/pkg/schema"
)

// Step is one stage of the pipeline. Execute never mutates its input and
// never panics past its boundary; failures come back as Outcome.Err.
type Step interface {
	ID() domain.StepID
	Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome
}

// Loader reads the report through the read_json_file capability.
type Loader struct {
	Tools      registry.Capabilities
	ReportName string
	Hooks      domain.LifecycleHooks
}

func (l *Loader) ID() domain.StepID { return domain.StepLoader }

func (l *Loader) Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome {
	if l.Tools == nil {
		return domain.Failed(missing(domain.StepLoader, domain.ToolReadJSONFile))
	}

	name := l.ReportName
	if name == "" {
		name = domain.DefaultReportName
	}

	content, err := callTool(ctx, l.Hooks, domain.StepLoader, domain.ToolReadJSONFile, func() (string, error) {
		return l.Tools.ReadJSONFile(ctx, name)
	})
	if err != nil {
		return domain.Failed(domain.NewStepError(domain.StepLoader, domain.ErrIO, err))
	}
	if !json.Valid([]byte(content)) {
		return domain.Failed(domain.NewStepError(domain.StepLoader, domain.ErrIO,
			fmt.Errorf("%s is not a valid JSON document", name)))
	}

	next := s.Clone()
	next.ReportContent = content
	if err := next.Advance(domain.ProgressReportLoaded); err != nil {
		return domain.Failed(domain.NewStepError(domain.StepLoader, domain.ErrPrecondition, err))
	}

	l.Hooks.Report(ctx, &domain.ReportEvent{
		EventBase: domain.NewEventBase(domain.EventReportLoaded, RunIDFromContext(ctx)),
		Bytes:     len(content),
	})
	return domain.Succeeded(next)
}

// AnomalyDetector turns the report into a validated Anomalies record.
type AnomalyDetector struct {
	Tools     registry.Capabilities
	Generator ports.Generator
	Hooks     domain.LifecycleHooks
}

func (a *AnomalyDetector) ID() domain.StepID { return domain.StepAnomalyDetector }

func (a *AnomalyDetector) Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome {
	store, serr := a.analyze(ctx, s)
	return commit(a.ID(), domain.ProgressAnomaliesDetected, s, store, serr)
}

func (a *AnomalyDetector) analyze(ctx context.Context, s *domain.WorkflowState) (func(*domain.WorkflowState), *domain.StepError) {
	payload, serr := generate(ctx, generation{
		step:     a.ID(),
		tool:     domain.ToolDetectAnomalies,
		prompt:   promptFunc(a.Tools, domain.ToolDetectAnomalies),
		gen:      a.Generator,
		desc:     domain.AnomaliesSchema,
		hooks:    a.Hooks,
		reportOK: s.HasReport(),
		report:   s.ReportContent,
	})
	if serr != nil {
		return nil, serr
	}
	rec, err := domain.ParseAnomalies(payload)
	if err != nil {
		return nil, domain.NewStepError(a.ID(), domain.ErrGeneration, err)
	}
	return func(next *domain.WorkflowState) { next.Anomalies = rec }, nil
}

// OptimizationProposer turns the report into a validated Recommendations record.
type OptimizationProposer struct {
	Tools     registry.Capabilities
	Generator ports.Generator
	Hooks     domain.LifecycleHooks
}

func (o *OptimizationProposer) ID() domain.StepID { return domain.StepOptimizationProposer }

func (o *OptimizationProposer) Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome {
	store, serr := o.analyze(ctx, s)
	return commit(o.ID(), domain.ProgressOptimizationsProposed, s, store, serr)
}

func (o *OptimizationProposer) analyze(ctx context.Context, s *domain.WorkflowState) (func(*domain.WorkflowState), *domain.StepError) {
	payload, serr := generate(ctx, generation{
		step:     o.ID(),
		tool:     domain.ToolProposeOptimizations,
		prompt:   promptFunc(o.Tools, domain.ToolProposeOptimizations),
		gen:      o.Generator,
		desc:     domain.RecommendationsSchema,
		hooks:    o.Hooks,
		reportOK: s.HasReport(),
		report:   s.ReportContent,
	})
	if serr != nil {
		return nil, serr
	}
	rec, err := domain.ParseRecommendations(payload)
	if err != nil {
		return nil, domain.NewStepError(o.ID(), domain.ErrGeneration, err)
	}
	return func(next *domain.WorkflowState) { next.Recommendations = rec }, nil
}

// Finalizer marks the run completed and reports both records.
type Finalizer struct {
	Hooks domain.LifecycleHooks
}

func (f *Finalizer) ID() domain.StepID { return domain.StepFinalizer }

func (f *Finalizer) Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome {
	next := s.Clone()
	if err := next.Advance(domain.ProgressCompleted); err != nil {
		return domain.Failed(domain.NewStepError(f.ID(), domain.ErrPrecondition, err))
	}

	runID := RunIDFromContext(ctx)
	f.Hooks.Report(ctx, &domain.ReportEvent{
		EventBase: domain.NewEventBase(domain.EventAnomaliesSummary, runID),
		Count:     next.Anomalies.Count(),
		Summary:   anomaliesSummary(next.Anomalies),
	})
	f.Hooks.Report(ctx, &domain.ReportEvent{
		EventBase: domain.NewEventBase(domain.EventRecommendationsSummary, runID),
		Count:     next.Recommendations.Count(),
		Summary:   recommendationsSummary(next.Recommendations),
	})
	return domain.Succeeded(next)
}

// ErrorHandler reports the recorded failure. It leaves the state as is.
type ErrorHandler struct {
	Hooks domain.LifecycleHooks
}

func (e *ErrorHandler) ID() domain.StepID { return domain.StepErrorHandler }

func (e *ErrorHandler) Execute(ctx context.Context, s *domain.WorkflowState) domain.Outcome {
	e.Hooks.Report(ctx, &domain.ReportEvent{
		EventBase: domain.NewEventBase(domain.EventRunFailed, RunIDFromContext(ctx)),
		Error:     s.Error,
	})
	return domain.Succeeded(s)
}

type generation struct {
	step     domain.StepID
	tool     string
	prompt   func(ctx context.Context, report string) (string, error)
	gen      ports.Generator
	desc     schema.Descriptor
	hooks    domain.LifecycleHooks
	reportOK bool
	report   string
}

// generate builds the prompt and asks the generator for a payload.
// Without report content no collaborator is called.
func generate(ctx context.Context, g generation) (map[string]any, *domain.StepError) {
	if !g.reportOK {
		return nil, domain.NoReportError(g.step)
	}
	if g.prompt == nil {
		return nil, missing(g.step, g.tool)
	}
	if g.gen == nil {
		return nil, domain.NewStepError(g.step, domain.ErrGeneration, errors.New("no generation client configured"))
	}

	prompt, err := callTool(ctx, g.hooks, g.step, g.tool, func() (string, error) {
		return g.prompt(ctx, g.report)
	})
	if err != nil {
		return nil, domain.NewStepError(g.step, domain.ErrGeneration, err)
	}

	payload, err := g.gen.Generate(ctx, prompt, g.desc)
	if err != nil {
		return nil, domain.NewStepError(g.step, domain.ErrGeneration, err)
	}
	return payload, nil
}

// commit applies a produced record to a copy of s and advances it to to.
func commit(id domain.StepID, to domain.Progress, s *domain.WorkflowState, store func(*domain.WorkflowState), serr *domain.StepError) domain.Outcome {
	if serr != nil {
		return domain.Failed(serr)
	}
	next := s.Clone()
	store(next)
	if err := next.Advance(to); err != nil {
		return domain.Failed(domain.NewStepError(id, domain.ErrPrecondition, err))
	}
	return domain.Succeeded(next)
}

func callTool(ctx context.Context, hooks domain.LifecycleHooks, step domain.StepID, name string, fn func() (string, error)) (string, error) {
	runID := RunIDFromContext(ctx)
	hooks.ToolCall(ctx, &domain.ToolEvent{
		EventBase: domain.NewEventBase(domain.EventToolCall, runID),
		Step:      step,
		ToolName:  name,
	})

	start := time.Now()
	out, err := fn()

	hooks.ToolReturn(ctx, &domain.ToolEvent{
		EventBase: domain.NewEventBase(domain.EventToolReturn, runID),
		Step:      step,
		ToolName:  name,
		Duration:  time.Since(start),
		IsError:   err != nil,
		Err:       err,
	})
	return out, err
}

// promptFunc returns the prompt capability for tool, or nil when there are no tools.
func promptFunc(tools registry.Capabilities, tool string) func(context.Context, string) (string, error) {
	if tools == nil {
		return nil
	}
	if tool == domain.ToolDetectAnomalies {
		return tools.DetectAnomalies
	}
	return tools.ProposeOptimizations
}

func missing(step domain.StepID, tool string) *domain.StepErrorHandler {
	return domain.NewStepError(step, domain.ErrMissingCapability,
		fmt.Errorf("%w: %s", domain.ErrMissingCapability, tool))
}

func anomaliesSummary(a *domain.Anomalies) string {
	if a == nil {
		return domain.DefaultAnomaliesSummary
	}
	return a.Summary
}

func recommendationsSummary(r *domain.Recommendations) string {
	if r == nil {
		return domain.DefaultRecommendationsSummary
	}
	return r.Summary
}
