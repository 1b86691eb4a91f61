package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/tools"
	"github.com/aretw0/infrascope/pkg/adapters/memory"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/aretw0/infrascope/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyzerFunc func(ctx context.Context) (*infrascope.Result, error)

func (f analyzerFunc) Run(ctx context.Context) (*infrascope.Result, error) { return f(ctx) }

var generator = ports.GeneratorFunc(func(_ context.Context, _ string, desc schema.Descriptor) (map[string]any, error) {
	if desc.Name == domain.AnomaliesSchema.Name {
		return map[string]any{"anomalies": []any{}, "summary": "A"}, nil
	}
	return map[string]any{"recommendations": []any{}, "summary": "B"}, nil
})

func newAnalyzer(t *testing.T, opts ...infrascope.Option) *infrascope.Analyzer {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.DefaultReportName), []byte(`{"cpu":[1]}`), 0o644))
	reg := registry.NewRegistry()
	tools.Register(reg, dir)

	a, err := infrascope.New(append([]infrascope.Option{
		infrascope.WithTools(reg),
		infrascope.WithGenerator(generator),
	}, opts...)...)
	require.NoError(t, err)
	return a
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	rr := do(t, NewHandler(nil), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := do(t, NewHandler(nil), http.MethodGet, "/info")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "infrascope-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, "1.0.0", resp["api_version"])
}

func TestSwagger_Valid(t *testing.T) {
	doc, err := Swagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Find("/runs/{id}"))
}

func TestGetGraph(t *testing.T) {
	rr := do(t, NewHandler(nil), http.MethodGet, "/graph")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD"))
}

func TestRuns_Lifecycle(t *testing.T) {
	store := memory.NewStore()
	h := NewHandler(newAnalyzer(t, infrascope.WithStore(store)), WithStore(store))

	rr := do(t, h, http.MethodPost, "/runs")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var run RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "Success", run.Status)
	assert.Len(t, run.Steps, 4)
	assert.Equal(t, "B", run.Artifact["summary"])
	assert.Equal(t, "/runs/"+run.RunID, rr.Header().Get("Location"))

	rr = do(t, h, http.MethodGet, "/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	var list map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []string{run.RunID}, list["runs"])

	rr = do(t, h, http.MethodGet, "/runs/"+run.RunID)
	require.Equal(t, http.StatusOK, rr.Code)
	var artifact map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &artifact))
	assert.Equal(t, "B", artifact["summary"])

	rr = do(t, h, http.MethodGet, "/runs/unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListRuns_Limit(t *testing.T) {
	store := memory.NewStore()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(context.Background(), id, domain.Artifact{}))
	}
	h := NewHandler(nil, WithStore(store))

	rr := do(t, h, http.MethodGet, "/runs?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"runs":["a","b"]}`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/runs?limit=zero").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/runs?limit=0").Code)
}

func TestCreateRun_Failed(t *testing.T) {
	h := NewHandler(newAnalyzer(t, infrascope.WithReportName("missing.json")))

	rr := do(t, h, http.MethodPost, "/runs")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var run RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "Failed", run.Status)
	assert.Contains(t, run.Error, "failed to read report")
	assert.Nil(t, run.Artifact)
}

func TestCreateRun_StoreError(t *testing.T) {
	h := NewHandler(analyzerFunc(func(context.Context) (*infrascope.Result, error) {
		return &infrascope.Result{RunID: "r", Status: domain.RunSucceeded, State: domain.NewWorkflowState()}, errors.New("disk full")
	}))

	rr := do(t, h, http.MethodPost, "/runs")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "disk full")
}

func TestCreateRun_Busy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	h := NewHandler(analyzerFunc(func(context.Context) (*infrascope.Result, error) {
		close(started)
		<-release
		return &infrascope.Result{RunID: "r", Status: domain.RunSucceeded}, nil
	}), WithMaxConcurrentRuns(1))

	done := make(chan int)
	go func() { done <- do(t, h, http.MethodPost, "/runs").Code }()
	<-started

	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/runs").Code)
	close(release)
	assert.Equal(t, http.StatusCreated, <-done)
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("infrascope_runs_total 0\n"))
	})

	assert.Equal(t, http.StatusNotFound, do(t, NewHandler(nil), http.MethodGet, "/metrics").Code)
	rr := do(t, NewHandler(nil, WithMetrics(metrics)), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "infrascope_runs_total")
}

func TestSubscribeEvents(t *testing.T) {
	streams := NewStreamManager(nil)
	a := newAnalyzer(t, infrascope.WithLifecycleHooks(streams.Hooks()))
	srv := httptest.NewServer(NewHandler(a, WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?types=report_loaded,run_succeeded", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	post, err := http.Post(srv.URL+"/runs", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	var events []string
	for lines.Scan() && len(events) < 2 {
		if name, ok := strings.CutPrefix(lines.Text(), "event: "); ok && name != "ping" {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"report_loaded", "run_succeeded"}, events)
}

func TestStreamManager_RunScoped(t *testing.T) {
	sm := NewStreamManager(nil)
	mine, cancelMine := sm.Subscribe("r1")
	all, cancelAll := sm.Subscribe("")
	defer cancelAll()

	sm.Broadcast(Message{RunID: "r2", Type: domain.EventRunFailed})
	sm.Broadcast(Message{RunID: "r1", Type: domain.EventRunSucceeded})

	assert.Equal(t, domain.EventRunSucceeded, (<-mine).Type)
	assert.Equal(t, domain.EventRunFailed, (<-all).Type)
	assert.Equal(t, domain.EventRunSucceeded, (<-all).Type)

	cancelMine()
	cancelMine()
	_, open := <-mine
	assert.False(t, open)
}
