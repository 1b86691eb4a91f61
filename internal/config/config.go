// Package config loads infrascope settings from defaults, config files,
// INFRASCOPE_* environment variables and command-line flags.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Tools    ToolsConfig    `mapstructure:"tools" yaml:"tools"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ReportConfig names the metrics report a run analyzes.
type ReportConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

// ToolsConfig selects where the three capabilities come from.
type ToolsConfig struct {
	Transport string   `mapstructure:"transport" yaml:"transport"`
	URL       string   `mapstructure:"url" yaml:"url"`
	Command   string   `mapstructure:"command" yaml:"command"`
	Args      []string `mapstructure:"args" yaml:"args"`
	Dir       string   `mapstructure:"dir" yaml:"dir"`
}

// LLMConfig configures the structured generation backend.
type LLMConfig struct {
	Provider    string   `mapstructure:"provider" yaml:"provider"`
	BaseURL     string   `mapstructure:"base_url" yaml:"base_url"`
	Model       string   `mapstructure:"model" yaml:"model"`
	APIKey      string   `mapstructure:"api_key" yaml:"api_key,omitempty"`
	MaxRetries  int      `mapstructure:"max_retries" yaml:"max_retries"`
	Timeout     string   `mapstructure:"timeout" yaml:"timeout"`
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
}

// TimeoutDuration parses Timeout. Validate guarantees it is well formed.
func (c LLMConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// PipelineConfig tunes the run driver.
type PipelineConfig struct {
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
}

// OutputConfig says where run artifacts are written.
type OutputConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	Dir  string `mapstructure:"dir" yaml:"dir"`
}

// StoreConfig selects the artifact store.
type StoreConfig struct {
	Kind     string `mapstructure:"kind" yaml:"kind"`
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      string `mapstructure:"ttl" yaml:"ttl"`

	// EncryptionKey is a base64 AES-256 key; artifacts are sealed when set.
	EncryptionKey string   `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	FallbackKeys  []string `mapstructure:"fallback_keys" yaml:"fallback_keys,omitempty"`
	// Redact lists key patterns whose values are masked before saving.
	Redact []string `mapstructure:"redact" yaml:"redact"`
}

// TTLDuration parses TTL; empty means no expiry.
func (c StoreConfig) TTLDuration() time.Duration {
	if c.TTL == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// ServerConfig configures the HTTP API and the SSE tool server.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	ToolsAddr string `mapstructure:"tools_addr" yaml:"tools_addr"`
}

// MetricsConfig toggles Prometheus collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Tool transports.
const (
	TransportLocal = "local"
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// LLM providers.
const (
	ProviderMistral = "mistral"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

// Store kinds.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreNone  = "none"
)

// apiKeyEnv is consulted when llm.api_key is empty.
var apiKeyEnv = map[string]string{
	ProviderMistral: "MISTRAL_API_KEY",
	ProviderOpenAI:  "OPENAI_API_KEY",
	ProviderGemini:  "GEMINI_API_KEY",
}
