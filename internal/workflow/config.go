// Package workflow drives the resolution cascade: an ordered, user
// configurable sequence of provider lookup steps, resolved per bibliography
// entry by a bounded worker pool.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bibguard/bibguard/internal/domain"
)

// SearchType selects the lookup strategy a step dispatches with.
type SearchType string

// Lookup strategies.
const (
	SearchByID    SearchType = "by_id"
	SearchByDOI   SearchType = "by_doi"
	SearchByTitle SearchType = "by_title"
)

// Default candidate-acceptance thresholds for title searches. Structured
// APIs rank well, so candidates must be close; fallback searches accept
// looser candidates because they run only after the strict steps failed.
const (
	DefaultTitleThreshold  = 0.7
	FallbackTitleThreshold = 0.5
)

// Step binds one provider and one lookup strategy into the cascade.
type Step struct {
	// Name identifies the step in configs, results, and logs.
	Name string `json:"name"`

	// Adapter is the provider name the step dispatches to.
	Adapter string `json:"adapter"`

	// SearchType is the lookup strategy.
	SearchType SearchType `json:"search_type"`

	// Priority orders steps; lower runs earlier. Ties keep list order.
	Priority int `json:"priority"`

	// Enabled turns the step on.
	Enabled bool `json:"enabled"`

	// MinTitleSimilarity is the minimum title similarity a by_title
	// candidate must reach to be compared at all. Zero means the default
	// for the search type; by_id and by_doi lookups ignore it.
	MinTitleSimilarity float64 `json:"min_title_similarity,omitempty"`
}

// threshold returns the effective candidate-acceptance threshold.
func (s Step) threshold() float64 {
	if s.MinTitleSimilarity > 0 {
		return s.MinTitleSimilarity
	}
	return DefaultTitleThreshold
}

// Config is an ordered set of steps.
type Config struct {
	Steps []Step `json:"steps"`
}

// Default returns the stock eight-step cascade: identifier lookups first,
// structured-API title searches next, scraped web search last.
func Default() Config {
	return Config{Steps: []Step{
		{Name: "arxiv_id", Adapter: "arxiv", SearchType: SearchByID, Priority: 0, Enabled: true},
		{Name: "crossref_doi", Adapter: "crossref", SearchType: SearchByDOI, Priority: 1, Enabled: true},
		{Name: "semantic_scholar", Adapter: "semantic_scholar", SearchType: SearchByTitle, Priority: 2, Enabled: true},
		{Name: "dblp", Adapter: "dblp", SearchType: SearchByTitle, Priority: 3, Enabled: true},
		{Name: "openalex", Adapter: "openalex", SearchType: SearchByTitle, Priority: 4, Enabled: true},
		{Name: "arxiv_title", Adapter: "arxiv", SearchType: SearchByTitle, Priority: 5, Enabled: true, MinTitleSimilarity: FallbackTitleThreshold},
		{Name: "crossref_title", Adapter: "crossref", SearchType: SearchByTitle, Priority: 6, Enabled: true},
		{Name: "google_scholar", Adapter: "google_scholar", SearchType: SearchByTitle, Priority: 7, Enabled: true, MinTitleSimilarity: FallbackTitleThreshold},
	}}
}

// EnabledSteps returns only enabled steps, sorted ascending by priority.
// The sort is stable: equal priorities keep their list order.
func (c Config) EnabledSteps() []Step {
	steps := make([]Step, 0, len(c.Steps))
	for _, step := range c.Steps {
		if step.Enabled {
			steps = append(steps, step)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})
	return steps
}

// Validate checks structural invariants: non-empty names, known search
// types, no duplicate step names.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Steps))
	for i, step := range c.Steps {
		if step.Name == "" {
			return domain.NewValidationError(fmt.Sprintf("steps[%d].name", i), "must not be empty")
		}
		if seen[step.Name] {
			return domain.NewValidationError(fmt.Sprintf("steps[%d].name", i), "duplicate step name "+step.Name)
		}
		seen[step.Name] = true

		if step.Adapter == "" {
			return domain.NewValidationError(fmt.Sprintf("steps[%d].adapter", i), "must not be empty")
		}
		switch step.SearchType {
		case SearchByID, SearchByDOI, SearchByTitle:
		default:
			return domain.NewValidationError(fmt.Sprintf("steps[%d].search_type", i), "unknown search type "+string(step.SearchType))
		}
	}
	return nil
}

// Load reads a workflow config from a JSON file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading workflow config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing workflow config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workflow config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing workflow config: %w", err)
	}
	return nil
}
