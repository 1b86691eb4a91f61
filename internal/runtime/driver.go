package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// maxSteps bounds a run. A well-formed run executes at most five steps.
const maxSteps = 16

// errDiscarded marks a forked proposal thrown away because anomaly detection failed.
var errDiscarded = errors.New("discarded: anomaly detection failed")

// Result is the terminal outcome of a run.
type Result struct {
	RunID    string
	State    *domain.WorkflowState
	Status   domain.RunStatus
	Steps    []domain.StepID
	Duration time.Duration
}

// Driver owns the run loop. It holds no per-run state, so one Driver may
// serve concurrent runs as long as its collaborators are safe for concurrent use.
type Driver struct {
	tools      registry.Capabilities
	generator  ports.Generator
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	reportName string
	parallel   bool

	steps map[domain.StepID]Step
}

// Option configures the Driver.
type Option func(*Driver)

// WithLifecycleHooks registers observability sinks.
// With WithParallel, tool hooks fire from concurrent goroutines.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Driver) {
		d.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithReportName overrides the artifact the loader reads.
func WithReportName(name string) Option {
	return func(d *Driver) {
		d.reportName = name
	}
}

// WithParallel runs anomaly detection and optimization proposal concurrently
// once the report is loaded. Outcomes are still applied in pipeline order.
func WithParallel(enabled bool) Option {
	return func(d *Driver) {
		d.parallel = enabled
	}
}

// NewDriver wires the fixed step set to its collaborators.
func NewDriver(tools registry.Capabilities, generator ports.Generator, opts ...Option) *Driver {
	d := &Driver{
		tools:      tools,
		generator:  generator,
		logger:     logging.NewNop(),
		reportName: domain.DefaultReportName,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.steps = map[domain.StepID]Step{
		domain.StepLoader:               &Loader{Tools: d.tools, ReportName: d.reportName, Hooks: d.hooks},
		domain.StepAnomalyDetector:      &AnomalyDetector{Tools: d.tools, Generator: d.generator, Hooks: d.hooks},
		domain.StepOptimizationProposer: &OptimizationProposer{Tools: d.tools, Generator: d.generator, Hooks: d.hooks},
		domain.StepFinalizer:            &Finalizer{Hooks: d.hooks},
		domain.StepErrorHandler:                &ErrorHandler{Hooks: d.hooks},
	}
	return d
}

// Run drives s to a terminal step. A nil s starts from a fresh state.
// Run never returns a nil Result.
func (d *Driver) Run(ctx context.Context, s *domain.WorkflowState) *Result {
	if s == nil {
		s = domain.NewWorkflowState()
	}
	runID := RunIDFromContext(ctx)
	start := time.Now()
	res := &Result{RunID: runID}

	for range maxSteps {
		id := Next(s)
		if id == domain.StepEnd {
			break
		}

		if d.parallel && id == domain.StepAnomalyDetector {
			var ran []domain.StepID
			s, ran = d.fork(ctx, s)
			res.Steps = append(res.Steps, ran...)
			continue
		}

		s = d.execute(ctx, d.steps[id], s)
		res.Steps = append(res.Steps, id)
		if id == domain.StepErrorHandler {
			break
		}
	}

	if id := Next(s); id != domain.StepEnd && id != domain.StepErrorHandler {
		s = s.Clone()
		s.Fail(fmt.Sprintf("run exceeded %d steps at %s", maxSteps, s.CurrentStep))
	}

	res.State = s
	res.Status = domain.StatusOf(s)
	res.Duration = time.Since(start)

	if res.Status == domain.RunSucceeded {
		d.hooks.Report(ctx, &domain.ReportEvent{
			EventBase: domain.NewEventBase(domain.EventRunSucceeded, runID),
		})
	}
	d.logger.Debug("run finished", "run_id", runID, "status", res.Status, "steps", len(res.Steps), "duration", res.Duration)
	return res
}

// execute runs one step between its lifecycle hooks and folds the outcome into s.
func (d *Driver) execute(ctx context.Context, step Step, s *domain.WorkflowState) *domain.WorkflowState {
	id := step.ID()
	d.enter(ctx, id, s)

	start := time.Now()
	out := protect(id, func() domain.Outcome { return step.Execute(ctx, s) })
	next := domain.Apply(s, out)

	d.leave(ctx, id, next, time.Since(start), out.Err)
	return next
}

// fork runs both analysis steps on s concurrently and applies their outcomes
// in pipeline order. A proposal made while detection failed is dropped, so
// the resulting state matches a sequential run.
func (d *Driver) fork(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, []domain.StepID) {
	detector := d.steps[domain.StepAnomalyDetector].(*AnomalyDetector)
	proposer := d.steps[domain.StepOptimizationProposer].(*OptimizationProposer)

	type produced struct {
		store func(*domain.WorkflowState)
		err   *domain.StepErrorHandler
		took  time.Duration
	}
	var det, prop produced

	d.enter(ctx, detector.ID(), s)
	d.enter(ctx, proposer.ID(), s)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		det.store, det.err = protectAnalysis(detector.ID(), func() (func(*domain.WorkflowState), *domain.StepError) {
			return detector.analyze(gctx, s)
		})
		det.took = time.Since(start)
		if det.err != nil {
			// Nothing the proposer returns can be kept now.
			return det.err
		}
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		prop.store, prop.err = protectAnalysis(proposer.ID(), func() (func(*domain.WorkflowState), *domain.StepError) {
			return proposer.analyze(gctx, s)
		})
		prop.took = time.Since(start)
		return nil
	})
	_ = g.Wait()

	next := domain.Apply(s, commit(detector.ID(), domain.ProgressAnomaliesDetected, s, det.store, det.err))
	d.leave(ctx, detector.ID(), next, det.took, det.err)
	if next.Failed() {
		d.leave(ctx, proposer.ID(), next, prop.took, domain.NewStepError(proposer.ID(), domain.ErrGeneration, errDiscarded))
		return next, []domain.StepID{detector.ID()}
	}

	out := commit(proposer.ID(), domain.ProgressOptimizationsProposed, next, prop.store, prop.err)
	next = domain.Apply(next, out)
	d.leave(ctx, proposer.ID(), next, prop.took, out.Err)
	return next, []domain.StepID{detector.ID(), proposer.ID()}
}

func (d *Driver) enter(ctx context.Context, id domain.StepID, s *domain.WorkflowState) {
	d.hooks.StepEnter(ctx, &domain.StepEvent{
		EventBase: domain.NewEventBase(domain.EventStepEnter, RunIDFromContext(ctx)),
		Step:      id,
		Progress:  s.CurrentStep,
	})
}

func (d *Driver) leave(ctx context.Context, id domain.StepID, s *domain.WorkflowState, took time.Duration, serr *domain.StepError) {
	ev := &domain.StepEvent{
		EventBase: domain.NewEventBase(domain.EventStepLeave, RunIDFromContext(ctx)),
		Step:      id,
		Progress:  s.CurrentStep,
		Duration:  took,
	}
	if serr != nil {
		ev.Err = serr
		d.logger.Debug("step failed", "step", id, "progress", s.CurrentStep, "error", serr)
	} else {
		d.logger.Debug("step done", "step", id, "progress", s.CurrentStep, "duration", took)
	}
	d.hooks.StepLeave(ctx, ev)
}

// protect turns a panic inside a step into a failure outcome.
func protect(id domain.StepID, fn func() domain.Outcome) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Failed(domain.NewStepError(id, kindOf(id), fmt.Errorf("panic: %v", r)))
		}
	}()
	return fn()
}

func protectAnalysis(id domain.StepID, fn func() (func(*domain.WorkflowState), *domain.StepError)) (store func(*domain.WorkflowState), serr *domain.StepError) {
	defer func() {
		if r := recover(); r != nil {
			store, serr = nil, domain.NewStepError(id, kindOf(id), fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

func kindOf(id domain.StepID) error {
	switch id {
	case domain.StepLoader:
		return domain.ErrIO
	case domain.StepAnomalyDetector, domain.StepOptimizationProposer:
		return domain.ErrGeneration
	default:
		return domain.ErrPrecondition
	}
}
