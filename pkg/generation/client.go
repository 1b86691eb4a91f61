package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/schema"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 3

// Request is one completion request.
type Request struct {
	System string
	Prompt string
	Schema schema.Descriptor
}

// Provider talks to a language-model backend. It returns the raw text of the
// completion, which should be a JSON object matching Request.Schema.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is the structured generation client: it asks a Provider for JSON,
// validates it against the descriptor and retries transient failures.
type Client struct {
	provider   Provider
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	system     map[string]string
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

var _ ports.Generator = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithMaxRetries sets how many times a failed attempt is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial and maximum delay between attempts.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

// WithSystemPrompt overrides the system prompt used for a schema name.
func WithSystemPrompt(schemaName, prompt string) Option {
	return func(c *Client) {
		c.system[schemaName] = prompt
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client over provider.
func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		maxRetries: DefaultMaxRetries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   8 * time.Second,
		system:     DefaultSystemPrompts(),
		logger:     logging.NewNop(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate returns a payload that satisfies desc. Every failure wraps
// domain.ErrGeneration.
func (c *Client) Generate(ctx context.Context, prompt string, desc schema.Descriptor) (map[string]any, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", domain.ErrGeneration)
	}

	req := Request{System: c.system[desc.Name], Prompt: prompt, Schema: desc}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.delay(attempt)
			c.logger.Debug("retrying generation",
				"provider", c.provider.Name(), "schema", desc.Name, "attempt", attempt, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %w (last error: %v)", domain.ErrGeneration, err, lastErr)
			}
		}

		payload, err := c.attempt(ctx, req)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w (last error: %v)", domain.ErrGeneration, ctx.Err(), lastErr)
		}
		if !Retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrGeneration, desc.Name, lastErr)
}

func (c *Client) attempt(ctx context.Context, req Request) (map[string]any, error) {
	text, err := c.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := DecodeObject(text)
	if err != nil {
		return nil, &InvalidOutputError{Err: err}
	}
	if err := req.Schema.Validate(payload); err != nil {
		return nil, &InvalidOutputError{Err: err}
	}
	return payload, nil
}

// delay is an exponential backoff capped at maxDelay.
func (c *Client) delay(attempt int) time.Duration {
	d := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(c.maxDelay) {
		d = float64(c.maxDelay)
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DecodeObject parses a completion as a JSON object. Markdown code fences
// around the object are tolerated.
func DecodeObject(text string) (map[string]any, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```")
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		}
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	if body == "" {
		return nil, errors.New("empty completion")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("completion is not a JSON object: %w", err)
	}
	if payload == nil {
		return nil, errors.New("completion is null")
	}
	return payload, nil
}
