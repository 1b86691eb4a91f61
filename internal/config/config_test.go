package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/infrascope/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	assert.Equal(t, "rapport.json", cfg.Report.Name)
	assert.Equal(t, config.TransportLocal, cfg.Tools.Transport)
	assert.Equal(t, "http://localhost:8000/sse", cfg.Tools.URL)
	assert.Equal(t, config.ProviderMistral, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.LLM.TimeoutDuration())
	assert.Equal(t, "output.json", cfg.Output.Path)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)
	assert.Zero(t, cfg.Store.TTLDuration())
	assert.Nil(t, cfg.LLM.Temperature)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
report:
  name: metrics.json
llm:
  provider: openai
  model: gpt-4o-mini
  temperature: 0.3
pipeline:
  parallel: true
store:
  kind: redis
  ttl: 24h
`)
	t.Setenv("INFRASCOPE_LLM_MAX_RETRIES", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "metrics.json", cfg.Report.Name)
	assert.Equal(t, config.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.InDelta(t, 0.3, *cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.Pipeline.Parallel)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTLDuration())
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateLLM())
}

func TestLoader_ExplicitKeyWinsOverProviderEnv(t *testing.T) {
	path := writeConfig(t, "llm:\n  api_key: from-file\n")
	t.Setenv("MISTRAL_API_KEY", "from-env")

	cfg, err := config.NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
}

func TestLoader_BrokenFile(t *testing.T) {
	path := writeConfig(t, "llm: [unterminated")
	_, err := config.NewLoader().WithConfigFile(path).Load()
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	hot := 3.0
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"report name", func(c *config.Config) { c.Report.Name = "" }, "report.name"},
		{"transport", func(c *config.Config) { c.Tools.Transport = "grpc" }, "tools.transport"},
		{"stdio command", func(c *config.Config) { c.Tools.Transport = config.TransportStdio }, "tools.command"},
		{"provider", func(c *config.Config) { c.LLM.Provider = "eliza" }, "llm.provider"},
		{"retries", func(c *config.Config) { c.LLM.MaxRetries = -1 }, "llm.max_retries"},
		{"timeout", func(c *config.Config) { c.LLM.Timeout = "soon" }, "llm.timeout"},
		{"temperature", func(c *config.Config) { c.LLM.Temperature = &hot }, "llm.temperature"},
		{"store kind", func(c *config.Config) { c.Store.Kind = "s3" }, "store.kind"},
		{"redis url", func(c *config.Config) { c.Store.Kind = config.StoreRedis; c.Store.RedisURL = "" }, "store.redis_url"},
		{"ttl", func(c *config.Config) { c.Store.TTL = "-1h" }, "store.ttl"},
		{"encryption key", func(c *config.Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "store.encryption_key"},
		{"fallback key", func(c *config.Config) { c.Store.FallbackKeys = []string{"!!"} }, "store.fallback_keys[0]"},
		{"redact", func(c *config.Config) { c.Store.Redact = []string{"("} }, "store.redact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs config.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateLLM(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.APIKey = ""
	err := cfg.ValidateLLM()
	assert.ErrorContains(t, err, "MISTRAL_API_KEY")
}

func TestMarshalYAML_MasksKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.APIKey = "secret"
	cfg.Store.EncryptionKey = "c2VjcmV0LWtleQ=="

	out, err := config.MarshalYAML(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.NotContains(t, string(out), cfg.Store.EncryptionKey)
	assert.Equal(t, "secret", cfg.LLM.APIKey, "input is not modified")

	var back config.Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg.Report, back.Report)
	assert.Equal(t, cfg.Tools.URL, back.Tools.URL)
}
