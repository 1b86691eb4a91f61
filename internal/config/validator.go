package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/pkg/persistence/middleware"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidationErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", c.Log.Level, "must be one of debug, info, warn, error")
	}
	if !slices.Contains([]string{"", logging.FormatAuto, logging.FormatText, logging.FormatJSON}, c.Log.Format) {
		add("log.format", c.Log.Format, "must be one of auto, text, json")
	}

	if c.Report.Name == "" {
		add("report.name", c.Report.Name, "is required")
	}

	switch c.Tools.Transport {
	case TransportLocal, TransportSSE:
	case TransportStdio:
		if c.Tools.Command == "" {
			add("tools.command", c.Tools.Command, "is required for the stdio transport")
		}
	default:
		add("tools.transport", c.Tools.Transport, "must be one of local, sse, stdio")
	}

	if _, ok := apiKeyEnv[c.LLM.Provider]; !ok {
		add("llm.provider", c.LLM.Provider, "must be one of mistral, openai, gemini")
	}
	if c.LLM.MaxRetries < 0 {
		add("llm.max_retries", c.LLM.MaxRetries, "must not be negative")
	}
	if d, err := time.ParseDuration(c.LLM.Timeout); err != nil || d <= 0 {
		add("llm.timeout", c.LLM.Timeout, "must be a positive duration")
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		add("llm.temperature", *t, "must be between 0 and 2")
	}

	switch c.Store.Kind {
	case StoreFile, StoreNone:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			add("store.redis_url", c.Store.RedisURL, "is required for the redis store")
		}
	default:
		add("store.kind", c.Store.Kind, "must be one of file, redis, none")
	}
	if c.Store.TTL != "" {
		if d, err := time.ParseDuration(c.Store.TTL); err != nil || d < 0 {
			add("store.ttl", c.Store.TTL, "must be a non-negative duration")
		}
	}

	if c.Store.EncryptionKey != "" {
		if _, err := middleware.DecodeKey(c.Store.EncryptionKey); err != nil {
			add("store.encryption_key", "********", err.Error())
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.DecodeKey(k); err != nil {
			add(fmt.Sprintf("store.fallback_keys[%d]", i), "********", err.Error())
		}
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			add("store.redact", p, "must be a valid regular expression")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLLM reports whether a run can reach the generation backend.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return ValidationError{
			Field:   "llm.api_key",
			Value:   "",
			Message: fmt.Sprintf("is required (or set %s)", apiKeyEnv[c.LLM.Provider]),
		}
	}
	return nil
}
