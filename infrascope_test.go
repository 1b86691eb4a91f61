package infrascope_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/tools"
	"github.com/aretw0/infrascope/pkg/adapters/memory"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/aretw0/infrascope/pkg/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.DefaultReportName), []byte(`{"cpu":[10,12,95]}`), 0o644))
	return dir
}

func localTools(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	tools.Register(reg, reportDir(t))
	return reg
}

var fakeGenerator = ports.GeneratorFunc(func(_ context.Context, _ string, desc schema.Descriptor) (map[string]any, error) {
	switch desc.Name {
	case domain.AnomaliesSchema.Name:
		return map[string]any{
			"anomalies": []any{map[string]any{
				"metric":           "cpu",
				"timestamp":        []any{"t3"},
				"value":            []any{"95"},
				"description":      "spike",
				"potential_impact": "latency",
			}},
			"summary": "A",
		}, nil
	case domain.RecommendationsSchema.Name:
		return map[string]any{"recommendations": []any{}, "summary": "B"}, nil
	}
	return nil, errors.New("unexpected schema")
})

type failingStore struct{ ports.ArtifactStore }

func (failingStore) Save(context.Context, string, domain.Artifact) error {
	return errors.New("disk full")
}

func TestAnalyzer_Run(t *testing.T) {
	store := memory.NewStore()
	a, err := infrascope.New(
		infrascope.WithTools(localTools(t)),
		infrascope.WithGenerator(fakeGenerator),
		infrascope.WithStore(store),
	)
	require.NoError(t, err)
	assert.Empty(t, a.Missing())

	res, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunSucceeded, res.Status)
	_, perr := uuid.Parse(res.RunID)
	assert.NoError(t, perr)
	assert.Equal(t, []domain.StepID{
		domain.StepLoader, domain.StepAnomalyDetector, domain.StepOptimizationProposer, domain.StepFinalizer,
	}, res.Steps)

	assert.Equal(t, "B", res.Artifact["summary"], "recommendations win the shared key")
	assert.Len(t, res.Artifact["anomalies"], 1)
	assert.Contains(t, res.Artifact, "recommendations")

	saved, err := store.Load(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Artifact, saved)
}

func TestAnalyzer_RunParallel(t *testing.T) {
	a, err := infrascope.New(
		infrascope.WithTools(localTools(t)),
		infrascope.WithGenerator(fakeGenerator),
		infrascope.WithParallel(true),
	)
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, res.Status)
	assert.Equal(t, "B", res.Artifact["summary"])
}

func TestAnalyzer_MissingReport(t *testing.T) {
	store := memory.NewStore()
	a, err := infrascope.New(
		infrascope.WithTools(localTools(t)),
		infrascope.WithGenerator(fakeGenerator),
		infrascope.WithReportName("absent.json"),
		infrascope.WithStore(store),
	)
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, res.Status)
	assert.Nil(t, res.Artifact)
	assert.Contains(t, res.State.Error, "failed to read report")

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "nothing is persisted for a failed run")
}

func TestAnalyzer_MissingTool(t *testing.T) {
	reg := localTools(t)
	reg.Unregister(domain.ToolProposeOptimizations)

	a, err := infrascope.New(infrascope.WithTools(reg), infrascope.WithGenerator(fakeGenerator))
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ToolProposeOptimizations}, a.Missing())

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, res.Status)
	assert.NotNil(t, res.State.Anomalies, "detection ran before the missing capability was needed")

	_, err = infrascope.New(infrascope.WithTools(reg), infrascope.WithStrictTools(true))
	assert.ErrorIs(t, err, domain.ErrMissingCapability)
}

func TestAnalyzer_NoToolsNoGenerator(t *testing.T) {
	a, err := infrascope.New()
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, res.Status)
}

func TestAnalyzer_StoreFailure(t *testing.T) {
	a, err := infrascope.New(
		infrascope.WithTools(localTools(t)),
		infrascope.WithGenerator(fakeGenerator),
		infrascope.WithStore(failingStore{}),
	)
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	require.NotNil(t, res)
	assert.Equal(t, domain.RunSucceeded, res.Status)
	assert.NotNil(t, res.Artifact)
}

func TestAnalyzer_HooksSeeRunID(t *testing.T) {
	var ids []string
	hooks := domain.LifecycleHooks{
		OnReport: func(_ context.Context, e *domain.ReportEvent) { ids = append(ids, e.RunID) },
	}
	a, err := infrascope.New(
		infrascope.WithTools(localTools(t)),
		infrascope.WithGenerator(fakeGenerator),
		infrascope.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, res.RunID, id)
	}
}
