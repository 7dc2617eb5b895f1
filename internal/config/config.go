// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/odysseus/internal/model"
)

// Config holds the full application configuration. Components receive the
// sections they need at construction; nothing reads ambient globals.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Proxy     ProxyConfig     `yaml:"proxy" mapstructure:"proxy"`
	Apollo    ApolloConfig    `yaml:"apollo" mapstructure:"apollo"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Vetting   VettingConfig   `yaml:"vetting" mapstructure:"vetting"`
	Temporal  TemporalConfig  `yaml:"temporal" mapstructure:"temporal"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProxyConfig holds credentials for the rotating upstream proxy used by all
// scrape and search traffic.
type ProxyConfig struct {
	CustomerID string `yaml:"customer_id" mapstructure:"customer_id"`
	Zone       string `yaml:"zone" mapstructure:"zone"`
	Password   string `yaml:"password" mapstructure:"password"`
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	// RatePerSec caps outbound requests through the proxy.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ApolloConfig holds the firmographic enrichment provider settings.
type ApolloConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResearchConfig configures the research aggregator and fetch layer.
type ResearchConfig struct {
	// MaxFullTextSources bounds how many deduplicated sources get a
	// full-text fetch per topic.
	MaxFullTextSources int `yaml:"max_full_text_sources" mapstructure:"max_full_text_sources"`
	// TruncateChars bounds page text fed into prompts.
	TruncateChars    int `yaml:"truncate_chars" mapstructure:"truncate_chars"`
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// VettingConfig configures the task runner.
type VettingConfig struct {
	// SoftTimeLimitSecs is the per-company wall-clock budget; exceeding it
	// marks that company Failed and moves to the next id.
	SoftTimeLimitSecs int `yaml:"soft_time_limit_secs" mapstructure:"soft_time_limit_secs"`
	// HardTimeLimitSecs bounds a whole batch invocation.
	HardTimeLimitSecs int `yaml:"hard_time_limit_secs" mapstructure:"hard_time_limit_secs"`
	// BatchSize is the chunk size used when dispatching large id lists.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// Weights for the unified composite score.
	Weights model.Weights `yaml:"weights" mapstructure:"weights"`
}

// TemporalConfig configures the task queue connection.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ODYSSEUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default empty so their env bindings register.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("apollo.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("proxy.customer_id", "")
	v.SetDefault("proxy.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("proxy.host", "brd.superproxy.io")
	v.SetDefault("proxy.port", 33335)
	v.SetDefault("proxy.zone", "serp_api1")
	v.SetDefault("proxy.rate_per_sec", 8)
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.timeout_secs", 60)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("research.max_full_text_sources", 5)
	v.SetDefault("research.truncate_chars", 8000)
	v.SetDefault("research.fetch_timeout_secs", 60)
	v.SetDefault("vetting.soft_time_limit_secs", 2000)
	v.SetDefault("vetting.hard_time_limit_secs", 2500)
	v.SetDefault("vetting.batch_size", 3)
	v.SetDefault("vetting.weights.geography", 0.33)
	v.SetDefault("vetting.weights.industry", 0.33)
	v.SetDefault("vetting.weights.russia", 0.17)
	v.SetDefault("vetting.weights.size", 0.17)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "vetting")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ValidateCredentials checks that every credential the pipeline needs at
// runtime is present. A miss here is a deployment defect, surfaced before any
// company is touched.
func (c *Config) ValidateCredentials() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required")
	}
	if c.Apollo.Key == "" {
		return eris.New("config: apollo.key is required")
	}
	if c.Proxy.CustomerID == "" || c.Proxy.Password == "" {
		return eris.New("config: proxy.customer_id and proxy.password are required")
	}
	if c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
