package infrascope

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/internal/runtime"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/google/uuid"
)

// Result describes one finished run.
type Result struct {
	RunID    string
	Status   domain.RunStatus
	State    *domain.WorkflowState
	Steps    []domain.StepID
	Duration time.Duration

	// Artifact is the merged output. It is nil unless Status is RunSucceeded.
	Artifact domain.Artifact
}

// Analyzer is the high-level entry point. It wires a tool source and a
// generator into the run driver and persists successful artifacts.
type Analyzer struct {
	tools      registry.Source
	generator  ports.Generator
	store      ports.ArtifactStore
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	reportName string
	parallel   bool
	strict     bool

	toolset *registry.Toolset
	driver  *runtime.Driver
}

// Option defines a functional option for configuring the Analyzer.
type Option func(*Analyzer)

// WithTools sets where the three capabilities are looked up.
func WithTools(src registry.Source) Option {
	return func(a *Analyzer) {
		a.tools = src
	}
}

// WithGenerator sets the structured generation client.
func WithGenerator(g ports.Generator) Option {
	return func(a *Analyzer) {
		a.generator = g
	}
}

// WithStore persists the artifact of every successful run.
func WithStore(s ports.ArtifactStore) Option {
	return func(a *Analyzer) {
		a.store = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Analyzer) {
		a.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithReportName sets the report file the loader reads (default rapport.json).
func WithReportName(name string) Option {
	return func(a *Analyzer) {
		a.reportName = name
	}
}

// WithParallel runs the two analysis steps concurrently.
func WithParallel(enabled bool) Option {
	return func(a *Analyzer) {
		a.parallel = enabled
	}
}

// WithStrictTools makes New fail when a required tool is unavailable,
// instead of letting the first step that needs it fail the run.
func WithStrictTools(strict bool) Option {
	return func(a *Analyzer) {
		a.strict = strict
	}
}

// New builds an Analyzer.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		logger:     logging.NewNop(),
		reportName: domain.DefaultReportName,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.toolset = registry.NewToolset(a.tools)
	if a.strict {
		if err := a.toolset.Validate(); err != nil {
			return nil, err
		}
	}
	if missing := a.toolset.Missing(); len(missing) > 0 {
		a.logger.Warn("tools unavailable, runs will fail when they are needed", "missing", missing)
	}

	a.driver = runtime.NewDriver(a.toolset, a.generator,
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.logger),
		runtime.WithReportName(a.reportName),
		runtime.WithParallel(a.parallel),
	)
	return a, nil
}

// Missing lists the required tools the source does not provide.
func (a *Analyzer) Missing() []string {
	return a.toolset.Missing()
}

// Run executes one analysis from a fresh state under a new run ID.
// A failed run is reported through Result.Status with a nil error; the
// error return is reserved for failing to persist a successful artifact.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	ctx = runtime.ContextWithRunID(ctx, runID)

	out := a.driver.Run(ctx, domain.NewWorkflowState())
	res := &Result{
		RunID:    runID,
		Status:   out.Status,
		State:    out.State,
		Steps:    out.Steps,
		Duration: out.Duration,
	}
	if res.Status != domain.RunSucceeded {
		return res, nil
	}

	artifact, err := domain.MergeArtifact(out.State.Anomalies, out.State.Recommendations)
	if err != nil {
		return res, fmt.Errorf("building artifact: %w", err)
	}
	res.Artifact = artifact

	if a.store != nil {
		if err := a.store.Save(ctx, runID, artifact); err != nil {
			return res, fmt.Errorf("saving artifact %s: %w", runID, err)
		}
	}
	a.logger.Info("run complete", "run_id", runID, "duration", res.Duration)
	return res, nil
}
