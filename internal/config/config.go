package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredentials indicates a required API key is absent. This is a
// fatal startup condition, not a runtime one.
var ErrMissingCredentials = errors.New("missing required credentials")

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	AdminPort    int           `mapstructure:"admin_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig holds the completion provider settings.
type LLMConfig struct {
	APIKey       string        `mapstructure:"-"`
	BaseURL      string        `mapstructure:"base_url"`
	QueryModel   string        `mapstructure:"query_model"`
	SummaryModel string        `mapstructure:"summary_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds the web-search provider settings.
type SearchConfig struct {
	APIKey       string        `mapstructure:"-"`
	Endpoint     string        `mapstructure:"endpoint"`
	Market       string        `mapstructure:"market"`
	ResultsPer   int           `mapstructure:"results_per_query"`
	KeepPerQuery int           `mapstructure:"keep_per_query"`
	MaxTotal     int           `mapstructure:"max_total"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ExtractConfig holds the content extraction settings.
type ExtractConfig struct {
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MinLength      int           `mapstructure:"min_length"`
	MaxLength      int           `mapstructure:"max_length"`
	Engine         string        `mapstructure:"engine"` // "selectors" or "readability"
	UserAgent      string        `mapstructure:"user_agent"`
}

// SummarizeConfig holds the summarization settings.
type SummarizeConfig struct {
	ChunkSize   int           `mapstructure:"chunk_size"`
	BatchSize   int           `mapstructure:"batch_size"`
	BatchPause  time.Duration `mapstructure:"batch_pause"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// TracingConfig mirrors the tracing package configuration.
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Summarize SummarizeConfig `mapstructure:"summarize"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	SourceDir string          `mapstructure:"source_dir"`
}

// Load reads the service configuration from CONFIG_PATH (default
// config/research.yaml), applies defaults and env overrides, and pulls
// credentials from the environment. A missing config file is fine; missing
// credentials are not.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/research.yaml"
	}
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	v.SetEnvPrefix("RESEARCH")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Search.APIKey = os.Getenv("BING_SEARCH_API_KEY")
	return &cfg, nil
}

// ValidateCredentials fails fast when a required key is absent. Called once
// at startup before any pipeline run.
func (c *Config) ValidateCredentials() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingCredentials)
	}
	if c.Search.APIKey == "" {
		return fmt.Errorf("%w: BING_SEARCH_API_KEY", ErrMissingCredentials)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_port", 8081)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("llm.query_model", "gpt-4o-mini")
	v.SetDefault("llm.summary_model", "gpt-4o")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.endpoint", "https://api.bing.microsoft.com/v7.0/search")
	v.SetDefault("search.market", "en-CA")
	v.SetDefault("search.results_per_query", 10)
	v.SetDefault("search.keep_per_query", 5)
	v.SetDefault("search.max_total", 15)
	v.SetDefault("search.timeout", 15*time.Second)

	v.SetDefault("extract.fetch_timeout", 30*time.Second)
	v.SetDefault("extract.max_concurrency", 8)
	v.SetDefault("extract.min_length", 200)
	v.SetDefault("extract.max_length", 50000)
	v.SetDefault("extract.engine", "selectors")
	v.SetDefault("extract.user_agent", "Mozilla/5.0 (compatible; DraftdeskResearchBot/1.0; +https://draftdesk.io/bot)")

	v.SetDefault("summarize.chunk_size", 4000)
	v.SetDefault("summarize.batch_size", 5)
	v.SetDefault("summarize.batch_pause", time.Second)
	v.SetDefault("summarize.call_timeout", 90*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "research-orchestrator")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")

	v.SetDefault("source_dir", "config")
}
