package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/registry"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Transports accepted by Connect.
const (
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// DefaultURL is where the tool server listens by default.
const DefaultURL = "http://localhost:8000/sse"

// Endpoint locates a remote tool server.
type Endpoint struct {
	Transport string
	URL       string   // sse
	Command   string   // stdio
	Args      []string // stdio
	Env       []string // stdio
}

// Source is a registry.Source backed by an MCP client. The tool list is
// fetched once when connecting.
type Source struct {
	client *client.Client

	mu    sync.RWMutex
	tools map[string]bool
}

var _ registry.Source = (*Source)(nil)

// Connect opens the transport, performs the MCP handshake and lists tools.
func Connect(ctx context.Context, ep Endpoint) (*Source, error) {
	var (
		c   *client.Client
		err error
	)
	switch ep.Transport {
	case "", TransportSSE:
		url := ep.URL
		if url == "" {
			url = DefaultURL
		}
		c, err = client.NewSSEMCPClient(url)
		if err == nil {
			if err = start(ctx, c); err != nil {
				c = nil // already closed
			}
		}
	case TransportStdio:
		if ep.Command == "" {
			return nil, errors.New("stdio transport needs a command")
		}
		c, err = client.NewStdioMCPClient(ep.Command, ep.Env, ep.Args...)
	default:
		return nil, fmt.Errorf("unknown MCP transport %q", ep.Transport)
	}
	if err != nil {
		if c != nil {
			_ = c.Close()
		}
		return nil, fmt.Errorf("connecting to tool server: %w", err)
	}
	return newSource(ctx, c)
}

// NewInProcess connects to s without any transport.
func NewInProcess(ctx context.Context, s *Server) (*Source, error) {
	c, err := client.NewInProcessClient(s.MCPServer())
	if err != nil {
		return nil, err
	}
	if err := start(ctx, c); err != nil {
		return nil, err
	}
	return newSource(ctx, c)
}

type starter interface {
	Start(ctx context.Context) error
	Close() error
}

// start starts c and closes it if starting fails.
func start(ctx context.Context, c starter) error {
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("starting MCP client: %w", err)
	}
	return nil
}

func newSource(ctx context.Context, c *client.Client) (*Source, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "infrascope",
		Version: strings.TrimSpace(infrascope.Version),
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing MCP session: %w", err)
	}

	s := &Source{client: c, tools: make(map[string]bool)}
	if err := s.Refresh(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return s, nil
}

// Refresh re-reads the tool list from the server.
func (s *Source) Refresh(ctx context.Context) error {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}
	tools := make(map[string]bool, len(res.Tools))
	for _, t := range res.Tools {
		tools[t.Name] = true
	}

	s.mu.Lock()
	s.tools = tools
	s.mu.Unlock()
	return nil
}

// Has reports whether the server advertised name.
func (s *Source) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools[name]
}

// Execute calls a tool and returns its text content.
// A tool-level error result becomes an error.
func (s *Source) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	if !s.Has(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCapability, name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", name, err)
	}

	text := contentText(res.Content)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return nil, errors.New(text)
	}
	return text, nil
}

// Close terminates the session and its transport.
func (s *Source) Close() error {
	return s.client.Close()
}

func contentText(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		}
	}
	return strings.Join(parts, "\n")
}
