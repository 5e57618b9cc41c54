package workflow

import (
	"context"
	"sync"

	"github.com/bibguard/bibguard/internal/domain"
)

// DefaultWorkers bounds entry-level parallelism when the caller does not
// choose a pool size. Provider rate limiters serialize same-provider
// requests across workers, so more workers mostly helps when entries fan
// out over different providers.
const DefaultWorkers = 4

// ResolveAll resolves entries on a bounded worker pool and returns results
// in input order. The cascade within one entry stays sequential; only
// entries run in parallel. A cancelled context stops workers from picking up
// new entries; entries never started resolve to cancellation verdicts.
func (r *Resolver) ResolveAll(ctx context.Context, entries []*domain.BibEntry, cfg Config, workers int) []*domain.ComparisonResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	results := make([]*domain.ComparisonResult, len(entries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.Resolve(ctx, entries[idx], cfg)
			}
		}()
	}

	for idx := range entries {
		select {
		case <-ctx.Done():
			// Stop feeding work; running resolutions observe ctx
			// themselves.
		case jobs <- idx:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	for idx, result := range results {
		if result == nil {
			results[idx] = r.comparator.UnableResult(entries[idx], "Resolution cancelled before this entry was attempted")
		}
	}
	return results
}
