package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/infrascope/internal/runtime"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var fullRun = []domain.StepID{
	domain.StepLoader,
	domain.StepAnomalyDetector,
	domain.StepOptimizationProposer,
	domain.StepFinalizer,
}

func TestDriver_HappyPath(t *testing.T) {
	tools, gen := happyCollaborators()
	rec := &recorder{}
	d := runtime.NewDriver(tools, gen, runtime.WithLifecycleHooks(rec.hooks()))

	ctx := runtime.ContextWithRunID(context.Background(), "run-1")
	res := d.Run(ctx, nil)

	require.Equal(t, domain.RunSucceeded, res.Status)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, fullRun, res.Steps)
	assert.Equal(t, domain.AllProgress(), res.State.History)

	require.Equal(t, 1, res.State.Anomalies.Count())
	a := res.State.Anomalies.Anomalies[0]
	assert.Equal(t, "cpu", a.Metric)
	assert.Equal(t, []string{"t3"}, a.Timestamp)
	assert.Equal(t, []string{"90"}, a.Value)
	assert.Equal(t, "1 anomaly found", res.State.Anomalies.Summary)

	assert.Equal(t, fullRun, rec.entered)
	assert.Equal(t, fullRun, rec.left)
	assert.Equal(t, []domain.EventType{
		domain.EventReportLoaded,
		domain.EventAnomaliesSummary,
		domain.EventRecommendationsSummary,
		domain.EventRunSucceeded,
	}, rec.reports)
}

func TestDriver_MissingTool(t *testing.T) {
	_, gen := happyCollaborators()
	rec := &recorder{}
	d := runtime.NewDriver(registryWithout(domain.ToolReadJSONFile), gen, runtime.WithLifecycleHooks(rec.hooks()))

	res := d.Run(context.Background(), domain.NewWorkflowState())

	assert.Equal(t, domain.RunFailed, res.Status)
	assert.Equal(t, []domain.StepID{domain.StepLoader, domain.StepErrorHandler}, res.Steps)
	assert.Empty(t, res.State.ReportContent)
	assert.Equal(t, domain.ProgressStart, res.State.CurrentStep)
	assert.Contains(t, res.State.Error, "failed to read report")
	assert.Contains(t, res.State.Error, domain.ToolReadJSONFile)
	assert.NotContains(t, rec.entered, domain.StepFinalizer)
	assert.Zero(t, gen.calls.Load())
	assert.Equal(t, []domain.EventType{domain.EventRunFailed}, rec.reports)
}

func TestDriver_PartialFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			tools, gen := happyCollaborators()
			gen.recommendErr = errors.New("connection reset")
			d := runtime.NewDriver(tools, gen, runtime.WithParallel(parallel))

			res := d.Run(context.Background(), nil)

			assert.Equal(t, domain.RunFailed, res.Status)
			assert.Nil(t, res.State.Recommendations)
			assert.Equal(t, "failed to propose optimizations: connection reset", res.State.Error)
			require.NotNil(t, res.State.Anomalies, "earlier result is preserved")
			assert.Equal(t, 1, res.State.Anomalies.Count())
			assert.Equal(t, domain.ProgressAnomaliesDetected, res.State.CurrentStep)
			assert.Equal(t, []domain.StepID{
				domain.StepLoader,
				domain.StepAnomalyDetector,
				domain.StepOptimizationProposer,
				domain.StepErrorHandler,
			}, res.Steps)
		})
	}
}

func TestDriver_Parallel(t *testing.T) {
	defer goleak.VerifyNone(t)

	tools, gen := happyCollaborators()
	rec := &recorder{}
	d := runtime.NewDriver(tools, gen, runtime.WithParallel(true), runtime.WithLifecycleHooks(rec.hooks()))

	res := d.Run(context.Background(), nil)

	require.Equal(t, domain.RunSucceeded, res.Status)
	assert.Equal(t, fullRun, res.Steps)
	assert.Equal(t, domain.AllProgress(), res.State.History, "every marker is still visited in order")
	assert.Equal(t, 1, res.State.Anomalies.Count())
	assert.Equal(t, 1, res.State.Recommendations.Count())
	assert.Equal(t, fullRun, rec.left)
	assert.ElementsMatch(t, []string{
		domain.ToolReadJSONFile, domain.ToolDetectAnomalies, domain.ToolProposeOptimizations,
	}, rec.tools)
}

func TestDriver_ParallelDetectionFailureDiscardsProposal(t *testing.T) {
	defer goleak.VerifyNone(t)

	tools, gen := happyCollaborators()
	gen.anomaliesErr = errors.New("rate limited")
	d := runtime.NewDriver(tools, gen, runtime.WithParallel(true))

	res := d.Run(context.Background(), nil)

	assert.Equal(t, domain.RunFailed, res.Status)
	assert.Equal(t, "failed to detect anomalies: rate limited", res.State.Error)
	assert.Nil(t, res.State.Anomalies)
	assert.Nil(t, res.State.Recommendations)
	assert.Equal(t, []domain.StepID{domain.StepLoader, domain.StepAnomalyDetector, domain.StepErrorHandler}, res.Steps)
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string, schema.Descriptor) (map[string]any, error) {
	panic("boom")
}

func TestDriver_StepPanicBecomesFailure(t *testing.T) {
	tools := &stubTools{report: reportJSON}
	gen := panicGenerator{}
	d := runtime.NewDriver(tools, gen)

	res := d.Run(context.Background(), nil)

	assert.Equal(t, domain.RunFailed, res.Status)
	assert.Contains(t, res.State.Error, "failed to detect anomalies: panic: boom")
	assert.Equal(t, domain.ProgressReportLoaded, res.State.CurrentStep)
}

func TestDriver_ConcurrentRuns(t *testing.T) {
	tools, gen := happyCollaborators()
	d := runtime.NewDriver(tools, gen)

	var wg sync.WaitGroup
	results := make([]*runtime.Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := runtime.ContextWithRunID(context.Background(), fmt.Sprintf("run-%d", i))
			results[i] = d.Run(ctx, nil)
		}()
	}
	wg.Wait()

	for i, res := range results {
		assert.Equal(t, domain.RunSucceeded, res.Status)
		assert.Equal(t, fmt.Sprintf("run-%d", i), res.RunID)
	}
}

func TestDriver_FailedStateGoesStraightToErrorHandler(t *testing.T) {
	tools, gen := happyCollaborators()
	d := runtime.NewDriver(tools, gen)

	s := domain.NewWorkflowState()
	s.Fail("earlier failure")
	res := d.Run(context.Background(), s)

	assert.Equal(t, []domain.StepID{domain.StepErrorHandler}, res.Steps)
	assert.Equal(t, "earlier failure", res.State.Error)
	assert.Zero(t, tools.calls.Load())
}
