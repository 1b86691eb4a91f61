package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/infrascope"
	"github.com/aretw0/infrascope/internal/config"
	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/internal/tools"
	"github.com/aretw0/infrascope/pkg/adapters/file"
	"github.com/aretw0/infrascope/pkg/adapters/gemini"
	"github.com/aretw0/infrascope/pkg/adapters/mcp"
	"github.com/aretw0/infrascope/pkg/adapters/openai"
	"github.com/aretw0/infrascope/pkg/adapters/redis"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/generation"
	"github.com/aretw0/infrascope/pkg/persistence/middleware"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/aretw0/infrascope/pkg/registry"
)

// OpenAI defaults; the openai adapter itself defaults to Mistral.
const (
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o-mini"
)

// NewLogger builds the application logger from cfg.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// NewLocalRegistry registers the built-in tools over dir.
func NewLocalRegistry(dir string) *registry.Registry {
	reg := registry.NewRegistry()
	tools.Register(reg, dir)
	return reg
}

// NewToolSource resolves the configured tool transport. The returned close
// func releases remote connections and is never nil.
func NewToolSource(ctx context.Context, cfg *config.Config) (registry.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Tools.Transport {
	case config.TransportLocal, "":
		return NewLocalRegistry(cfg.Tools.Dir), noop, nil
	case config.TransportSSE, config.TransportStdio:
		src, err := mcp.Connect(ctx, mcp.Endpoint{
			Transport: cfg.Tools.Transport,
			URL:       cfg.Tools.URL,
			Command:   cfg.Tools.Command,
			Args:      cfg.Tools.Args,
		})
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown tools transport %q", cfg.Tools.Transport)
	}
}

// NewProvider builds the generation backend named by llm.provider.
func NewProvider(ctx context.Context, cfg *config.Config) (generation.Provider, error) {
	llm := cfg.LLM
	switch llm.Provider {
	case config.ProviderMistral, config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithName(llm.Provider),
			openai.WithHTTPClient(&http.Client{Timeout: llm.TimeoutDuration()}),
		}
		if llm.Provider == config.ProviderOpenAI {
			opts = append(opts, openai.WithBaseURL(openAIBaseURL), openai.WithModel(openAIModel))
		}
		opts = append(opts, openai.WithBaseURL(llm.BaseURL), openai.WithModel(llm.Model))
		if llm.Temperature != nil {
			opts = append(opts, openai.WithTemperature(*llm.Temperature))
		}
		return openai.New(llm.APIKey, opts...), nil
	case config.ProviderGemini:
		return gemini.New(ctx, llm.APIKey, llm.Model, llm.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llm.Provider)
	}
}

// NewGenerator wraps the configured provider in a retrying client.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.Generator, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return generation.NewClient(provider,
		generation.WithMaxRetries(cfg.LLM.MaxRetries),
		generation.WithLogger(logger),
	), nil
}

// NewStore builds the configured artifact store, or nil for store.kind none.
// Redaction and encryption wrap the backend when configured. The returned
// close func is never nil.
func NewStore(cfg *config.Config) (ports.ArtifactStore, func() error, error) {
	noop := func() error { return nil }

	var (
		store   ports.ArtifactStore
		closeFn = noop
	)
	switch cfg.Store.Kind {
	case config.StoreFile, "":
		store = file.New(cfg.Output.Dir)
	case config.StoreRedis:
		rs, err := redis.New(cfg.Store.RedisURL, redis.WithTTL(cfg.Store.TTLDuration()))
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = rs, rs.Close
	case config.StoreNone:
		return nil, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	mws, err := storeMiddleware(cfg.Store)
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

// storeMiddleware orders redaction outside encryption so it sees plaintext.
func storeMiddleware(sc config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sc.Redact) > 0 {
		red, err := middleware.NewRedaction(sc.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, red)
	}
	if sc.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		key, err := middleware.DecodeKey(sc.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		enc.ActiveKey = key
		for _, k := range sc.FallbackKeys {
			fk, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.fallback_keys: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fk)
		}
		mw, err := middleware.NewEncryption(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// Deps groups what NewAnalyzer built, so callers can reuse the store and
// release connections.
type Deps struct {
	Analyzer *infrascope.Analyzer
	Store    ports.ArtifactStore
	close    []func() error
}

// Close releases tool connections and the store.
func (d *Deps) Close() error {
	var first error
	for _, fn := range d.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewAnalyzer wires an Analyzer from cfg.
func NewAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*Deps, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}

	deps := &Deps{}
	src, closeTools, err := NewToolSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.close = append(deps.close, closeTools)

	gen, err := NewGenerator(ctx, cfg, logger)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}

	store, closeStore, err := NewStore(cfg)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Store = store
	deps.close = append(deps.close, closeStore)

	a, err := infrascope.New(
		infrascope.WithTools(src),
		infrascope.WithGenerator(gen),
		infrascope.WithStore(store),
		infrascope.WithLogger(logger),
		infrascope.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		infrascope.WithReportName(cfg.Report.Name),
		infrascope.WithParallel(cfg.Pipeline.Parallel),
	)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Analyzer = a
	return deps, nil
}
