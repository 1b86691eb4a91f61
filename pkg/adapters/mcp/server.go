package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
)

// ServerName is advertised to MCP clients.
const ServerName = "infrascope-tools"

// Server exposes registry tools over MCP.
type Server struct {
	reg       *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithServerLogger configures the structured logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server publishing each spec backed by reg.
func NewServer(reg *registry.Registry, specs []registry.Spec, opts ...ServerOption) *Server {
	s := &Server{
		reg:       reg,
		mcpServer: server.NewMCPServer(ServerName, strings.TrimSpace(infrascope.Version), server.WithToolCapabilities(false)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, spec := range specs {
		s.registerTool(spec)
	}
	return s
}

// MCPServer returns the underlying server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("SSE sessions did not close cleanly", "error", err)
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTool(spec registry.Spec) {
	tool := mcp.NewTool(spec.Name,
		mcp.WithDescription(spec.Description),
		mcp.WithString(spec.Arg, mcp.Required(), mcp.Description(spec.ArgHelp)),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arg, err := request.RequireString(spec.Arg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := s.reg.Execute(ctx, spec.Name, map[string]any{spec.Arg: arg})
		if err != nil {
			s.logger.Debug("tool failed", "tool", spec.Name, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", spec.Name, err)), nil
		}

		text, err := registry.Text(res)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}
