package sources

import (
	"context"
	"time"

	"github.com/bibguard/bibguard/internal/cache"
	"github.com/bibguard/bibguard/internal/domain"
)

// CachedAdapter wraps an Adapter with a persistent response cache. Hits skip
// the provider entirely, which keeps re-runs over the same bibliography from
// re-spending rate-limit budget. Only successful lookups are cached; errors
// and not-found outcomes always go back to the provider.
type CachedAdapter struct {
	inner   Adapter
	store   *cache.Cache
	ttl     time.Duration
	metrics CacheMetrics
}

// CacheMetrics records cache outcomes per provider.
type CacheMetrics interface {
	RecordCacheHit(provider string)
	RecordCacheMiss(provider string)
}

var _ Adapter = (*CachedAdapter)(nil)

// NewCachedAdapter wraps inner with store. A non-positive ttl uses the
// cache's default. The cache namespace is the adapter's Name, so providers
// never collide.
func NewCachedAdapter(inner Adapter, store *cache.Cache, ttl time.Duration) *CachedAdapter {
	return &CachedAdapter{inner: inner, store: store, ttl: ttl}
}

// WithMetrics attaches a cache metrics recorder and returns the adapter.
func (c *CachedAdapter) WithMetrics(m CacheMetrics) *CachedAdapter {
	c.metrics = m
	return c
}

func (c *CachedAdapter) recordOutcome(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.RecordCacheHit(c.inner.Name())
	} else {
		c.metrics.RecordCacheMiss(c.inner.Name())
	}
}

// FetchByID implements Adapter.
func (c *CachedAdapter) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return c.single(ctx, "id:"+id, func() (*domain.Record, error) {
		return c.inner.FetchByID(ctx, id)
	})
}

// FetchByDOI implements Adapter.
func (c *CachedAdapter) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return c.single(ctx, "doi:"+doi, func() (*domain.Record, error) {
		return c.inner.FetchByDOI(ctx, doi)
	})
}

// SearchByTitle implements Adapter.
func (c *CachedAdapter) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	key := "title:" + title

	var cached []*domain.Record
	if hit, err := c.store.Get(c.inner.Name(), key, &cached); err == nil && hit {
		c.recordOutcome(true)
		return cached, nil
	}
	c.recordOutcome(false)

	records, err := c.inner.SearchByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		// Cache write failures must not fail the lookup.
		_ = c.store.Set(c.inner.Name(), key, records, c.ttl)
	}
	return records, nil
}

// Name implements Adapter.
func (c *CachedAdapter) Name() string {
	return c.inner.Name()
}

// IsEnabled implements Adapter.
func (c *CachedAdapter) IsEnabled() bool {
	return c.inner.IsEnabled()
}

// Unwrap returns the wrapped adapter.
func (c *CachedAdapter) Unwrap() Adapter {
	return c.inner
}

func (c *CachedAdapter) single(ctx context.Context, key string, fetch func() (*domain.Record, error)) (*domain.Record, error) {
	var cached domain.Record
	if hit, err := c.store.Get(c.inner.Name(), key, &cached); err == nil && hit {
		c.recordOutcome(true)
		return &cached, nil
	}
	c.recordOutcome(false)

	record, err := fetch()
	if err != nil {
		return nil, err
	}
	if record != nil {
		_ = c.store.Set(c.inner.Name(), key, record, c.ttl)
	}
	return record, nil
}
