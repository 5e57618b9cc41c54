// Package config provides configuration management for the citation
// verification service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service and the CLI.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Cache contains the on-disk response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Sources contains per-provider API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// Workflow contains resolution cascade settings.
	Workflow WorkflowConfig `mapstructure:"workflow"`
	// Resolve contains entry-resolution settings.
	Resolve ResolveConfig `mapstructure:"resolve"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
}

// CacheConfig holds on-disk response cache settings.
type CacheConfig struct {
	// Enabled controls whether provider responses are cached at all.
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database file. "~" expands to the home directory.
	Path string `mapstructure:"path"`
	// TTL is how long cached provider responses stay fresh.
	TTL time.Duration `mapstructure:"ttl"`
}

// SourcesConfig holds configuration for all bibliographic providers.
type SourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// CrossRef contains CrossRef API settings.
	CrossRef SourceConfig `mapstructure:"crossref"`
	// DBLP contains DBLP API settings.
	DBLP SourceConfig `mapstructure:"dblp"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// GoogleScholar contains the web-search fallback settings.
	GoogleScholar SourceConfig `mapstructure:"google_scholar"`
}

// SourceConfig holds configuration for a single provider.
type SourceConfig struct {
	// Enabled controls whether this provider is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key, loaded from an environment variable
	// (e.g. BIBGUARD_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestInterval is the minimum delay between requests to this
	// provider, enforced globally across workers.
	RequestInterval time.Duration `mapstructure:"request_interval"`
	// Mailto identifies the caller to providers with polite pools
	// (CrossRef, OpenAlex).
	Mailto string `mapstructure:"mailto"`
	// MaxResults caps results per title search.
	MaxResults int `mapstructure:"max_results"`
}

// WorkflowConfig holds resolution cascade settings.
type WorkflowConfig struct {
	// Path is an optional user workflow JSON file. Empty means the
	// built-in default cascade.
	Path string `mapstructure:"path"`
}

// ResolveConfig holds entry-resolution settings.
type ResolveConfig struct {
	// Workers is the entry-level worker pool size.
	Workers int `mapstructure:"workers"`
	// CheckDuplicates enables duplicate detection over the entry set.
	CheckDuplicates bool `mapstructure:"check_duplicates"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("BIBGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bibguard")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come exclusively from environment variables; the fields use
	// mapstructure:"-" so config files cannot set them.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("BIBGUARD_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.Sources.CrossRef.APIKey = os.Getenv("BIBGUARD_SOURCES_CROSSREF_API_KEY")
	cfg.Sources.OpenAlex.APIKey = os.Getenv("BIBGUARD_SOURCES_OPENALEX_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "bibguard")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "~/.bibguard/cache.db")
	v.SetDefault("cache.ttl", "168h") // 7 days

	// Provider defaults - arXiv asks for >= 3s between requests.
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.request_interval", "3s")
	v.SetDefault("sources.arxiv.max_results", 5)

	v.SetDefault("sources.crossref.enabled", true)
	v.SetDefault("sources.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("sources.crossref.timeout", "30s")
	v.SetDefault("sources.crossref.request_interval", "1s")
	v.SetDefault("sources.crossref.mailto", "")
	v.SetDefault("sources.crossref.max_results", 5)

	v.SetDefault("sources.dblp.enabled", true)
	v.SetDefault("sources.dblp.base_url", "https://dblp.org")
	v.SetDefault("sources.dblp.timeout", "30s")
	v.SetDefault("sources.dblp.request_interval", "1s")
	v.SetDefault("sources.dblp.max_results", 5)

	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.request_interval", "1s")
	v.SetDefault("sources.openalex.mailto", "")
	v.SetDefault("sources.openalex.max_results", 5)

	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.request_interval", "1s")
	v.SetDefault("sources.semantic_scholar.max_results", 5)

	// Google Scholar scraping gets blocked quickly; pace it hard.
	v.SetDefault("sources.google_scholar.enabled", true)
	v.SetDefault("sources.google_scholar.base_url", "https://scholar.google.com")
	v.SetDefault("sources.google_scholar.timeout", "30s")
	v.SetDefault("sources.google_scholar.request_interval", "10s")
	v.SetDefault("sources.google_scholar.max_results", 3)

	// Workflow defaults
	v.SetDefault("workflow.path", "")

	// Resolve defaults
	v.SetDefault("resolve.workers", 4)
	v.SetDefault("resolve.check_duplicates", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Cache.Enabled {
		if c.Cache.Path == "" {
			return fmt.Errorf("cache path is required when the cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", c.Cache.TTL)
		}
	}

	for name, source := range map[string]SourceConfig{
		"arxiv":            c.Sources.ArXiv,
		"crossref":         c.Sources.CrossRef,
		"dblp":             c.Sources.DBLP,
		"openalex":         c.Sources.OpenAlex,
		"semantic_scholar": c.Sources.SemanticScholar,
		"google_scholar":   c.Sources.GoogleScholar,
	} {
		if !source.Enabled {
			continue
		}
		if source.BaseURL == "" {
			return fmt.Errorf("sources.%s.base_url is required when the source is enabled", name)
		}
		if source.RequestInterval < 0 {
			return fmt.Errorf("sources.%s.request_interval must not be negative", name)
		}
	}

	if c.Resolve.Workers <= 0 {
		return fmt.Errorf("resolve workers must be positive, got %d", c.Resolve.Workers)
	}

	return nil
}

// CachePath returns the cache path with a leading "~" expanded.
func (c *CacheConfig) CachePath() (string, error) {
	if !strings.HasPrefix(c.Path, "~") {
		return c.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return home + strings.TrimPrefix(c.Path, "~"), nil
}
