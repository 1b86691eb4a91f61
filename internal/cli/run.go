package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/config"
	"github.com/aretw0/infrascope/internal/presentation/graph"
	"github.com/aretw0/infrascope/internal/presentation/tui"
	"github.com/aretw0/infrascope/pkg/adapters/file"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/observability"
)

// ErrRunFailed is returned by Execute when the pipeline ends in the error
// handler. The CLI maps it to exit status 1.
var ErrRunFailed = errors.New("run failed")

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Quiet  bool // no summary
	Graph  bool // print the step graph with the run overlaid
	Hooks  []domain.LifecycleHooks
}

// Execute performs one run, writes the artifact to output.path on success
// and prints a summary.
func Execute(ctx context.Context, opts RunOptions) (*infrascope.Result, error) {
	hooks := append([]domain.LifecycleHooks{observability.LogHooks(opts.Logger)}, opts.Hooks...)
	deps, err := NewAnalyzer(ctx, opts.Config, opts.Logger, hooks...)
	if err != nil {
		return nil, err
	}
	defer deps.Close()

	res, err := deps.Analyzer.Run(ctx)
	if err != nil {
		return res, err
	}

	if res.Status == domain.RunSucceeded && opts.Config.Output.Path != "" {
		if err := file.WriteFile(opts.Config.Output.Path, res.Artifact); err != nil {
			return res, fmt.Errorf("writing %s: %w", opts.Config.Output.Path, err)
		}
		opts.Logger.Info("artifact written", "path", opts.Config.Output.Path, "run_id", res.RunID)
	}

	if !opts.Quiet {
		if err := tui.PrintSummary(opts.Out, res.RunID, res.State); err != nil {
			return res, err
		}
	}
	if opts.Graph {
		fmt.Fprintln(opts.Out, graph.GenerateMermaid(&graph.Overlay{
			Visited: res.Steps,
			Failed:  res.Status == domain.RunFailed,
		}))
	}

	if res.Status != domain.RunSucceeded {
		return res, fmt.Errorf("%w: %s", ErrRunFailed, res.State.Error)
	}
	return res, nil
}
