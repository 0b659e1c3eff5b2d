package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/setup/config"
	"go.uber.org/zap"
)

// ViewCache keeps assembled post views in memory in front of the store.
// A nil *ViewCache is valid and caches nothing.
type ViewCache struct {
	raw     *ristretto.Cache
	manager *gocache.Cache[*types.PostView]
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.Mutex // Orders Set against Invalidate
	epoch uint64
}

// New creates a view cache. Returns nil when the cache is disabled.
func New(cfg *config.Cache, logger *zap.Logger) (*ViewCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	maxViews := max(cfg.MaxViews, 1)

	raw, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxViews * 10,
		MaxCost:     maxViews,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create view cache: %w", err)
	}

	return &ViewCache{
		raw:     raw,
		manager: gocache.New[*types.PostView](ristrettostore.NewRistretto(raw)),
		ttl:     time.Duration(cfg.TTL) * time.Second,
		logger:  logger.Named("view_cache"),
	}, nil
}

func viewKey(id types.PostID) string {
	return "post:" + string(id)
}

// Epoch returns the invalidation counter. Callers read it before loading rows
// from the store and pass it back to Set.
func (c *ViewCache) Epoch() uint64 {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.epoch
}

// Get returns a copy of the cached view for a post.
func (c *ViewCache) Get(ctx context.Context, id types.PostID) (*types.PostView, bool) {
	if c == nil {
		return nil, false
	}

	view, err := c.manager.Get(ctx, viewKey(id))
	if err != nil || view == nil {
		return nil, false
	}

	return view.Clone(), true
}

// Set stores a view loaded at the given epoch. The view is dropped if any
// invalidation happened since, so a stale read never overwrites a newer write.
func (c *ViewCache) Set(ctx context.Context, view *types.PostView, epoch uint64) {
	if c == nil || view == nil || view.Details == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return
	}

	opts := []store.Option{store.WithCost(1)}
	if c.ttl > 0 {
		opts = append(opts, store.WithExpiration(c.ttl))
	}

	if err := c.manager.Set(ctx, viewKey(view.Details.ID), view.Clone(), opts...); err != nil {
		c.logger.Debug("Failed to cache post view",
			zap.String("postID", view.Details.ID.String()),
			zap.Error(err))
	}
}

// Invalidate drops the cached views of the given posts.
func (c *ViewCache) Invalidate(ctx context.Context, ids ...types.PostID) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++

	for _, id := range ids {
		if err := c.manager.Delete(ctx, viewKey(id)); err != nil {
			c.logger.Debug("Failed to invalidate post view",
				zap.String("postID", id.String()),
				zap.Error(err))
		}
	}
}

// Wait blocks until pending writes are visible to Get.
func (c *ViewCache) Wait() {
	if c == nil {
		return
	}
	c.raw.Wait()
}

// Close stops the cache's background goroutines.
func (c *ViewCache) Close() {
	if c == nil {
		return
	}
	c.raw.Close()
}
