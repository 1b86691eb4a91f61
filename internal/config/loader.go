package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. INFRASCOPE_LLM_MODEL.
const EnvPrefix = "INFRASCOPE"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (INFRASCOPE_*)
// 3. Project config (.infrascope.yaml in current directory)
// 4. User config (~/.config/infrascope/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	setDefaults(l.v)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".infrascope")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "infrascope"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	return &cfg, nil
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Defaults returns the configuration with nothing but defaults applied.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// MarshalYAML renders cfg with the API key masked.
func MarshalYAML(cfg *Config) ([]byte, error) {
	out := *cfg
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = "********"
	}
	if out.Store.EncryptionKey != "" {
		out.Store.EncryptionKey = "********"
	}
	if len(out.Store.FallbackKeys) > 0 {
		out.Store.FallbackKeys = nil
	}
	return yaml.Marshal(&out)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("report.name", "rapport.json")

	v.SetDefault("tools.transport", TransportLocal)
	v.SetDefault("tools.url", "http://localhost:8000/sse")
	v.SetDefault("tools.command", "")
	v.SetDefault("tools.args", []string{})
	v.SetDefault("tools.dir", ".")

	v.SetDefault("llm.provider", ProviderMistral)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout", "2m")

	v.SetDefault("pipeline.parallel", false)

	v.SetDefault("output.path", "output.json")
	v.SetDefault("output.dir", filepath.Join(".infrascope", "runs"))

	v.SetDefault("store.kind", StoreFile)
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.ttl", "")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redact", []string{})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tools_addr", ":8000")

	v.SetDefault("metrics.enabled", true)
}
