// Package sources provides clients for bibliographic metadata providers.
//
// Each provider (arXiv, CrossRef, DBLP, OpenAlex, Semantic Scholar, Google
// Scholar) implements the Adapter interface, giving the resolution cascade a
// uniform way to look up papers by identifier, DOI, or title.
//
// Example usage:
//
//	src := arxiv.New(arxiv.Config{}, httpClient)
//	record, err := src.FetchByID(ctx, "1706.03762")
package sources

import (
	"context"

	"github.com/bibguard/bibguard/internal/domain"
)

// Adapter is the interface every bibliographic provider client implements.
//
// A provider that does not support a lookup mode returns (nil, nil) from that
// method; the cascade treats it the same as "no result". A genuine "looked
// and found nothing" is reported as domain.ErrNotFound so callers can tell
// absence from transport failure.
type Adapter interface {
	// FetchByID retrieves a record by the provider's native identifier
	// (arXiv ID, Semantic Scholar paper ID, DBLP key).
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Transform provider responses to domain.Record
	//   - Wrap errors with provider context
	FetchByID(ctx context.Context, id string) (*domain.Record, error)

	// FetchByDOI retrieves a record by DOI.
	FetchByDOI(ctx context.Context, doi string) (*domain.Record, error)

	// SearchByTitle returns candidate records for a title query, best first
	// as ranked by the provider. An empty slice means no candidates.
	SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error)

	// Name returns the provider identifier used in results, logs, and
	// workflow configuration (e.g. "arxiv", "crossref").
	Name() string

	// IsEnabled reports whether the provider is usable. A provider may be
	// disabled by configuration, a missing API key, or a blocked session.
	IsEnabled() bool
}
