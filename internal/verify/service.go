// Package verify orchestrates a full verification run: parse the
// bibliography, extract citations from the document, resolve every entry
// through the provider cascade, cluster duplicates, and assemble the report.
// Both the CLI and the HTTP server drive runs through this package.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibguard/bibguard/internal/bibtex"
	"github.com/bibguard/bibguard/internal/dedupe"
	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/observability"
	"github.com/bibguard/bibguard/internal/report"
	"github.com/bibguard/bibguard/internal/texparse"
	"github.com/bibguard/bibguard/internal/workflow"
)

// Options tunes a single verification run.
type Options struct {
	// Workers sets the entry-resolution pool size. Zero means the default.
	Workers int

	// CheckDuplicates enables duplicate clustering over the entry set.
	CheckDuplicates bool
}

// Service runs verifications.
type Service struct {
	resolver  *workflow.Resolver
	clusterer *dedupe.Clusterer
	extractor *texparse.Extractor
	cascade   workflow.Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service. metrics may be nil.
func NewService(resolver *workflow.Resolver, cascade workflow.Config, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		resolver:  resolver,
		clusterer: dedupe.NewClusterer(),
		extractor: texparse.NewExtractor(),
		cascade:   cascade,
		logger:    logger.With().Str("component", "verify").Logger(),
		metrics:   metrics,
	}
}

// Run verifies bibText against the providers. texText is the optional LaTeX
// document used for cited/uncited checks; empty means usage sections are
// skipped.
func (s *Service) Run(ctx context.Context, bibText, texText string, opts Options) (*report.Report, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordVerificationStarted()
	}

	rep, err := s.run(ctx, bibText, texText, opts)
	if s.metrics != nil {
		if err != nil {
			s.metrics.RecordVerificationFailed(time.Since(start).Seconds())
		} else {
			s.metrics.RecordVerificationCompleted(time.Since(start).Seconds())
		}
	}
	return rep, err
}

func (s *Service) run(ctx context.Context, bibText, texText string, opts Options) (*report.Report, error) {
	entries, err := bibtex.Parse(bibText)
	if err != nil {
		return nil, fmt.Errorf("parsing bibliography: %w", err)
	}
	if len(entries) == 0 {
		return nil, domain.NewValidationError("bibliography", "contains no entries")
	}

	var contexts map[string][]domain.CitationContext
	if texText != "" {
		contexts = s.extractor.Extract(texText)
	}

	s.logger.Info().
		Int("entries", len(entries)).
		Int("cited_keys", len(contexts)).
		Msg("starting verification run")

	results := s.resolver.ResolveAll(ctx, entries, s.cascade, opts.Workers)

	var duplicates []*domain.DuplicateGroup
	if opts.CheckDuplicates {
		duplicates = s.clusterer.ClusterBySize(entries)
		if s.metrics != nil {
			s.metrics.RecordDuplicateGroups(len(duplicates))
		}
	}

	rep := report.Build(entries, results, duplicates, contexts)
	s.logger.Info().
		Str("run_id", rep.RunID).
		Int("matched", rep.Summary.Matched).
		Int("mismatched", rep.Summary.Mismatched).
		Int("unable", rep.Summary.Unable).
		Int("duplicate_groups", len(duplicates)).
		Msg("verification run finished")

	return rep, nil
}
