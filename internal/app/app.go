// Package app wires configuration into a ready-to-use verification stack:
// logger, metrics, response cache, provider registry, resolver, and the
// verify service. Both the CLI and the server build themselves from here.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bibguard/bibguard/internal/cache"
	"github.com/bibguard/bibguard/internal/config"
	"github.com/bibguard/bibguard/internal/observability"
	"github.com/bibguard/bibguard/internal/sources"
	"github.com/bibguard/bibguard/internal/sources/arxiv"
	"github.com/bibguard/bibguard/internal/sources/crossref"
	"github.com/bibguard/bibguard/internal/sources/dblp"
	"github.com/bibguard/bibguard/internal/sources/openalex"
	"github.com/bibguard/bibguard/internal/sources/scholar"
	"github.com/bibguard/bibguard/internal/sources/semanticscholar"
	"github.com/bibguard/bibguard/internal/verify"
	"github.com/bibguard/bibguard/internal/workflow"
)

// App holds the assembled verification stack.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	Cache    *cache.Cache
	Registry *sources.Registry
	Resolver *workflow.Resolver
	Cascade  workflow.Config
	Verifier *verify.Service
}

// New assembles the stack from cfg. Metrics registration uses the default
// Prometheus registry, so New must be called at most once per process.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: observability.NewLogger(observability.LoggingConfig{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			Output:     cfg.Logging.Output,
			TimeFormat: cfg.Logging.TimeFormat,
		}),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	if cfg.Cache.Enabled {
		path, err := cfg.Cache.CachePath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		a.Cache, err = cache.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening response cache: %w", err)
		}
	}

	a.Registry = a.buildRegistry()

	a.Cascade = workflow.Default()
	if cfg.Workflow.Path != "" {
		cascade, err := workflow.Load(cfg.Workflow.Path)
		if err != nil {
			return nil, err
		}
		a.Cascade = cascade
	}

	a.Resolver = workflow.NewResolver(a.Registry, a.Logger, a.Metrics)
	a.Verifier = verify.NewService(a.Resolver, a.Cascade, a.Logger, a.Metrics)

	return a, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}

// buildRegistry constructs every provider adapter from config and registers
// it, wrapped with the response cache when one is open.
func (a *App) buildRegistry() *sources.Registry {
	src := a.Config.Sources
	registry := sources.NewRegistry()

	register := func(adapter sources.Adapter) {
		if a.Cache != nil {
			cached := sources.NewCachedAdapter(adapter, a.Cache, a.Config.Cache.TTL)
			if a.Metrics != nil {
				cached.WithMetrics(a.Metrics)
			}
			adapter = cached
		}
		registry.Register(adapter)
	}

	register(arxiv.New(arxiv.Config{
		BaseURL:         src.ArXiv.BaseURL,
		Timeout:         src.ArXiv.Timeout,
		RequestInterval: src.ArXiv.RequestInterval,
		MaxResults:      src.ArXiv.MaxResults,
		Enabled:         src.ArXiv.Enabled,
	}))
	register(crossref.New(crossref.Config{
		BaseURL:         src.CrossRef.BaseURL,
		Mailto:          src.CrossRef.Mailto,
		Timeout:         src.CrossRef.Timeout,
		RequestInterval: src.CrossRef.RequestInterval,
		MaxResults:      src.CrossRef.MaxResults,
		Enabled:         src.CrossRef.Enabled,
	}))
	register(dblp.New(dblp.Config{
		BaseURL:         src.DBLP.BaseURL,
		Timeout:         src.DBLP.Timeout,
		RequestInterval: src.DBLP.RequestInterval,
		MaxResults:      src.DBLP.MaxResults,
		Enabled:         src.DBLP.Enabled,
	}))
	register(openalex.New(openalex.Config{
		BaseURL:         src.OpenAlex.BaseURL,
		Mailto:          src.OpenAlex.Mailto,
		Timeout:         src.OpenAlex.Timeout,
		RequestInterval: src.OpenAlex.RequestInterval,
		MaxResults:      src.OpenAlex.MaxResults,
		Enabled:         src.OpenAlex.Enabled,
	}))
	register(semanticscholar.New(semanticscholar.Config{
		BaseURL:         src.SemanticScholar.BaseURL,
		APIKey:          src.SemanticScholar.APIKey,
		Timeout:         src.SemanticScholar.Timeout,
		RequestInterval: src.SemanticScholar.RequestInterval,
		MaxResults:      src.SemanticScholar.MaxResults,
		Enabled:         src.SemanticScholar.Enabled,
	}))
	register(scholar.New(scholar.Config{
		BaseURL:         src.GoogleScholar.BaseURL,
		Timeout:         src.GoogleScholar.Timeout,
		RequestInterval: src.GoogleScholar.RequestInterval,
		MaxResults:      src.GoogleScholar.MaxResults,
		Enabled:         src.GoogleScholar.Enabled,
	}))

	return registry
}
