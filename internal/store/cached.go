package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/door-pricing/internal/model"
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Cached decorates a Store with a per-category TTL cache of catalog records.
// Writes through UpsertRecords invalidate the written category. All other
// methods pass through to the wrapped store.
type Cached struct {
	Store

	ttl time.Duration
	now Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records   []model.CatalogRecord
	expiresAt time.Time
}

// NewCached wraps inner with a record cache. A nil clock uses time.Now.
func NewCached(inner Store, ttl time.Duration, now Clock) *Cached {
	if now == nil {
		now = time.Now
	}
	return &Cached{
		Store:   inner,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// ListRecords serves a category from cache while its entry is fresh.
func (c *Cached) ListRecords(ctx context.Context, category string) ([]model.CatalogRecord, error) {
	if records, ok := c.lookup(category); ok {
		return records, nil
	}

	records, err := c.Store.ListRecords(ctx, category)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[category] = cacheEntry{
		records:   slices.Clone(records),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	zap.L().Debug("store: cached catalog category",
		zap.String("category", category),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (c *Cached) lookup(category string) ([]model.CatalogRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[category]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, category)
		return nil, false
	}
	return slices.Clone(e.records), true
}

// UpsertRecords writes through and drops the category's cache entry.
func (c *Cached) UpsertRecords(ctx context.Context, category string, records []model.CatalogRecord) (int, error) {
	n, err := c.Store.UpsertRecords(ctx, category, records)
	c.Invalidate(category)
	return n, err
}

// Invalidate drops the cache entry for category.
func (c *Cached) Invalidate(category string) {
	c.mu.Lock()
	delete(c.entries, category)
	c.mu.Unlock()
}

// Flush drops every cache entry.
func (c *Cached) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
