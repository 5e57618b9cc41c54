package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibguard/bibguard/internal/compare"
	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/observability"
	"github.com/bibguard/bibguard/internal/sources"
)

// Resolver runs the cascade for single entries. Cascade order encodes trust:
// identifier lookups outrank title search, structured APIs outrank scraped
// web search. Resolution within one entry is strictly sequential; entries
// are parallelized by the Pool.
type Resolver struct {
	registry   *sources.Registry
	comparator *compare.Comparator
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewResolver creates a resolver over the given provider registry.
// metrics may be nil.
func NewResolver(registry *sources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		registry:   registry,
		comparator: compare.NewComparator(),
		logger:     logger,
		metrics:    metrics,
	}
}

// Resolve runs the enabled steps of cfg against entry in priority order and
// returns the final verdict.
//
// The first comparison with IsMatch true wins and stops the cascade. If no
// step matches, the highest-confidence comparison is returned, ties broken
// by earliest step. If no step produced any comparison, the result is the
// terminal "unable" verdict naming the providers that were attempted.
func (r *Resolver) Resolve(ctx context.Context, entry *domain.BibEntry, cfg Config) *domain.ComparisonResult {
	logger := observability.WithEntryContext(r.logger, entry.Key, entry.Title)

	var best *domain.ComparisonResult
	var attempted []string

	for _, step := range cfg.EnabledSteps() {
		if ctx.Err() != nil {
			logger.Debug().Msg("resolution cancelled")
			break
		}

		adapter := r.registry.Get(step.Adapter)
		if adapter == nil || !adapter.IsEnabled() {
			continue
		}

		candidates, applicable := r.lookup(ctx, logger, entry, step, adapter)
		if !applicable {
			continue
		}
		attempted = appendUnique(attempted, step.Adapter)
		if len(candidates) == 0 {
			continue
		}

		candidate := r.selectCandidate(entry, step, candidates)
		if candidate == nil {
			continue
		}

		result := r.comparator.Compare(entry, candidate)
		logger.Debug().
			Str("step", step.Name).
			Bool("is_match", result.IsMatch).
			Float64("confidence", result.Confidence).
			Msg("compared candidate")

		if result.IsMatch {
			r.recordOutcome("match", result.Confidence)
			return result
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}

	if best != nil {
		r.recordOutcome("mismatch", best.Confidence)
		return best
	}

	reason := "No provider had an applicable lookup for this entry"
	if len(attempted) > 0 {
		reason = fmt.Sprintf("Could not find paper in any provider (attempted: %s)", strings.Join(attempted, ", "))
	}
	r.recordOutcome("unable", 0)
	return r.comparator.UnableResult(entry, reason)
}

// lookup dispatches one step. The second return value reports whether the
// step was applicable to this entry at all; inapplicable steps are skipped
// without counting as attempts. Provider failures are logged and treated as
// absent, never escalated.
func (r *Resolver) lookup(ctx context.Context, logger zerolog.Logger, entry *domain.BibEntry, step Step, adapter sources.Adapter) ([]*domain.Record, bool) {
	stepLogger := observability.WithProviderContext(logger, step.Adapter, step.Name)

	var (
		candidates []*domain.Record
		err        error
	)

	start := time.Now()
	switch step.SearchType {
	case SearchByID:
		if !entry.HasArXiv() {
			return nil, false
		}
		var record *domain.Record
		record, err = adapter.FetchByID(ctx, entry.ArXivID)
		if record != nil {
			candidates = []*domain.Record{record}
		}
	case SearchByDOI:
		if entry.DOI == "" {
			return nil, false
		}
		var record *domain.Record
		record, err = adapter.FetchByDOI(ctx, entry.DOI)
		if record != nil {
			candidates = []*domain.Record{record}
		}
	case SearchByTitle:
		if entry.Title == "" {
			return nil, false
		}
		candidates, err = adapter.SearchByTitle(ctx, entry.Title)
	default:
		return nil, false
	}

	if r.metrics != nil {
		r.metrics.RecordLookupStarted(step.Adapter)
		if err != nil {
			r.metrics.RecordLookupFailed(step.Adapter, time.Since(start).Seconds())
		} else {
			r.metrics.RecordLookupCompleted(step.Adapter, time.Since(start).Seconds())
		}
	}
	if err != nil {
		if r.metrics != nil && isRateLimited(err) {
			r.metrics.RecordRateLimited(step.Adapter)
		}
		stepLogger.Warn().Err(err).Msg("provider lookup failed")
		return nil, true
	}

	return r.filterConflicting(entry, candidates), true
}

// selectCandidate picks the candidate with the highest title similarity.
// Identifier lookups return authoritative records and skip the similarity
// filter; title searches require the step's minimum similarity.
func (r *Resolver) selectCandidate(entry *domain.BibEntry, step Step, candidates []*domain.Record) *domain.Record {
	if step.SearchType != SearchByTitle {
		return candidates[0]
	}

	normEntry := compare.NormalizeForComparison(entry.Title)

	var best *domain.Record
	bestSim := -1.0
	for _, candidate := range candidates {
		sim := compare.TitleSimilarity(normEntry, compare.NormalizeForComparison(candidate.Title))
		if sim > bestSim {
			best, bestSim = candidate, sim
		}
	}

	if bestSim < step.threshold() {
		return nil
	}
	return best
}

// filterConflicting drops candidates whose identifiers contradict the
// entry's own. A candidate carrying a different DOI or arXiv ID describes a
// different work no matter how similar the title is.
func (r *Resolver) filterConflicting(entry *domain.BibEntry, candidates []*domain.Record) []*domain.Record {
	kept := candidates[:0]
	for _, candidate := range candidates {
		if entry.DOI != "" && candidate.DOI != "" && !strings.EqualFold(entry.DOI, candidate.DOI) {
			continue
		}
		if entry.HasArXiv() && candidate.ArXivID != "" && !strings.EqualFold(entry.ArXivID, candidate.ArXivID) {
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

func (r *Resolver) recordOutcome(outcome string, confidence float64) {
	if r.metrics != nil {
		r.metrics.RecordEntryResolved(outcome, confidence)
	}
}

func isRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
