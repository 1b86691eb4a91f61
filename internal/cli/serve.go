package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/infrascope/internal/adapters/http"
	"github.com/aretw0/infrascope/internal/config"
	"github.com/aretw0/infrascope/internal/tools"
	"github.com/aretw0/infrascope/pkg/adapters/mcp"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewAPIHandler wires the HTTP API with metrics and the event stream.
// The returned Deps must be closed by the caller.
func NewAPIHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, *Deps, error) {
	streams := httpAdapter.NewStreamManager(logger)
	hooks := []domain.LifecycleHooks{observability.LogHooks(logger), streams.Hooks()}
	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(streams),
		httpAdapter.WithLogger(logger),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = append(hooks, observability.NewMetrics(reg).Hooks())
		opts = append(opts, httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	deps, err := NewAnalyzer(ctx, cfg, logger, hooks...)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, httpAdapter.WithStore(deps.Store))
	return httpAdapter.NewHandler(deps.Analyzer, opts...), deps, nil
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	handler, deps, err := NewAPIHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down HTTP API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	}
}

// ServeTools publishes the built-in tools over MCP.
func ServeTools(ctx context.Context, cfg *config.Config, transport, addr string, logger *slog.Logger) error {
	reg := NewLocalRegistry(cfg.Tools.Dir)
	srv := mcp.NewServer(reg, tools.Specs(), mcp.WithServerLogger(logger))

	switch transport {
	case config.TransportStdio:
		logger.Info("MCP tool server on stdio", "dir", cfg.Tools.Dir)
		return srv.ServeStdio()
	case config.TransportSSE:
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
