// Package tieredcache orders a list of cachestore.Backend and
// implements spec.md §4.3's promote-on-hit / write-through semantics.
package tieredcache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riverlink/embedsvc/internal/cachestore"
)

// Cache owns an ordered [B1,...,Bn] backend list; order is the
// user-declared order from config and is the tiered-cache priority.
type Cache struct {
	backends []cachestore.Backend
	logger   *zap.Logger
}

// New builds a tiered cache over backends, highest priority first.
func New(logger *zap.Logger, backends ...cachestore.Backend) *Cache {
	return &Cache{backends: backends, logger: logger}
}

// Get iterates tiers in priority order. On a hit at tier i, every
// higher-priority tier 0..i-1 is written back with the found value (so
// a subsequent Get serves from the fastest tier); lower-priority tiers
// are left untouched. Returns (zero, false) if every tier misses.
func (c *Cache) Get(ctx context.Context, now time.Time, key []byte) (cachestore.Entry, bool) {
	for i, b := range c.backends {
		entry, ok, err := b.Get(ctx, now, key)
		if err != nil {
			c.logger.Warn("tiered cache: backend get failed", zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			tier := c.backends[j]
			if err := tier.Put(ctx, key, entry); err != nil {
				c.logger.Warn("tiered cache: promote write failed", zap.String("backend", tier.Name()), zap.Error(err))
			}
		}
		return entry, true
	}
	return cachestore.Entry{}, false
}

// Put fans out a Ready value to every backend concurrently; per-backend
// failures are logged, never propagated (best-effort, spec.md §4.3).
func (c *Cache) Put(ctx context.Context, key []byte, entry cachestore.Entry) {
	c.fanOut(ctx, func(b cachestore.Backend) error {
		return b.Put(ctx, key, entry)
	}, "put")
}

// PutErrored fans a negative-cache outcome out as a Del to every
// backend, since persistent tiers never cache errors (spec.md §4.3).
func (c *Cache) PutErrored(ctx context.Context, key []byte) {
	c.fanOut(ctx, func(b cachestore.Backend) error {
		return b.Del(ctx, key)
	}, "del")
}

// Shutdown fans Shutdown out to every backend concurrently; each
// failure is logged, not propagated.
func (c *Cache) Shutdown(ctx context.Context) {
	c.fanOut(ctx, func(b cachestore.Backend) error {
		return b.Shutdown(ctx)
	}, "shutdown")
}

func (c *Cache) fanOut(ctx context.Context, op func(cachestore.Backend) error, label string) {
	g, _ := errgroup.WithContext(ctx)
	for _, b := range c.backends {
		b := b
		g.Go(func() error {
			if err := op(b); err != nil {
				c.logger.Warn("tiered cache: backend op failed",
					zap.String("backend", b.Name()), zap.String("op", label), zap.Error(err))
			}
			return nil // never propagate: best-effort fan-out
		})
	}
	_ = g.Wait()
}
