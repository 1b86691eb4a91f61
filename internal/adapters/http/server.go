// Package http serves the analysis pipeline over HTTP: start a run, list
// stored artifacts, fetch one, and follow lifecycle events over SSE.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/internal/presentation/graph"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/rs/cors"
	"golang.org/x/sync/semaphore"
)

//go:embed openapi.yaml
var rawSpec []byte

// Analyzer runs one analysis. *infrascope.Analyzer satisfies it.
type Analyzer interface {
	Run(ctx context.Context) (*infrascope.Result, error)
}

// Server holds the handlers' collaborators.
type Server struct {
	analyzer Analyzer
	store    ports.ArtifactStore
	streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger
	runs     *semaphore.Weighted
}

// Option configures the Server.
type Option func(*Server)

// WithStore serves GET /runs from s.
func WithStore(s ports.ArtifactStore) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithStreams serves GET /events from sm. Chain sm.Hooks() into the
// analyzer so that runs publish to it.
func WithStreams(sm *StreamManager) Option {
	return func(srv *Server) {
		srv.streams = sm
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(srv *Server) {
		srv.metrics = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// WithMaxConcurrentRuns bounds simultaneous POST /runs; extra requests get 429.
func WithMaxConcurrentRuns(n int64) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.runs = semaphore.NewWeighted(n)
		}
	}
}

// NewHandler builds the router.
func NewHandler(analyzer Analyzer, opts ...Option) http.Handler {
	s := &Server{
		analyzer: analyzer,
		logger:   logging.NewNop(),
		runs:     semaphore.NewWeighted(4),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.CreateRun)
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
	})

	if s.streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(r)
}

// Swagger parses the embedded OpenAPI document.
func Swagger() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(rawSpec)
}

// RunResponse is the body of POST /runs.
type RunResponse struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	Steps      []string        `json:"steps"`
	DurationMS int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
	Artifact   domain.Artifact `json:"artifact,omitempty"`
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	apiVersion := "unknown"
	if swagger, err := Swagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "infrascope-http",
		"version":     strings.TrimSpace(infrascope.Version),
		"api_version": apiVersion,
	})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(nil)))
}

// CreateRun handles POST /runs.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	if !s.runs.TryAcquire(1) {
		http.Error(w, "too many runs in progress", http.StatusTooManyRequests)
		return
	}
	defer s.runs.Release(1)

	res, err := s.analyzer.Run(r.Context())
	if res == nil {
		s.logger.Error("run failed to start", "error", err)
		http.Error(w, "run failed to start", http.StatusInternalServerError)
		return
	}

	resp := RunResponse{
		RunID:      res.RunID,
		Status:     string(res.Status),
		Steps:      make([]string, 0, len(res.Steps)),
		DurationMS: res.Duration.Milliseconds(),
		Artifact:   res.Artifact,
	}
	for _, id := range res.Steps {
		resp.Steps = append(resp.Steps, string(id))
	}
	if res.State != nil {
		resp.Error = res.State.Error
	}

	switch {
	case err != nil:
		s.logger.Error("saving artifact failed", "run_id", res.RunID, "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
	case res.Status != domain.RunSucceeded:
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		w.Header().Set("Location", "/runs/"+res.RunID)
		writeJSON(w, http.StatusCreated, resp)
	}
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"runs": {}})
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter limit: %v", err), http.StatusBadRequest)
		return
	}
	if limit != nil && *limit < 1 {
		http.Error(w, "limit must be positive", http.StatusBadRequest)
		return
	}

	runs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		http.Error(w, "listing runs failed", http.StatusInternalServerError)
		return
	}
	if limit != nil && len(runs) > *limit {
		runs = runs[:*limit]
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": runs})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter id: %v", err), http.StatusBadRequest)
		return
	}
	if s.store == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	artifact, err := s.store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("loading run failed", "run_id", id, "error", err)
		http.Error(w, "loading run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var runID, types string
	if err := runtime.BindQueryParameter("form", true, false, "run_id", r.URL.Query(), &runID); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter run_id: %v", err), http.StatusBadRequest)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "types", r.URL.Query(), &types); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter types: %v", err), http.StatusBadRequest)
		return
	}
	var keep []domain.EventType
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			keep = append(keep, domain.EventType(t))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(keep) > 0 && !slices.Contains(keep, msg.Type) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
