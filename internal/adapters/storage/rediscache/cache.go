// Package rediscache wraps an app.Repository with Redis-backed caching for read operations.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/domain"
)

const keyPrefix = "missionctl"

var _ app.Repository = (*Cache)(nil)

// Cache caches repository reads under keys scoped to the dataset revision,
// so a replacement made by another process is never served stale.
type Cache struct {
	base  app.Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching repository using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base app.Repository, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("rediscache.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
}

func (c *Cache) ListItems(ctx context.Context) ([]domain.WorkItem, error) {
	return cached(ctx, c, "items", func() ([]domain.WorkItem, error) {
		return c.base.ListItems(ctx)
	})
}

func (c *Cache) ListContributors(ctx context.Context) ([]domain.Contributor, error) {
	return cached(ctx, c, "contributors", func() ([]domain.Contributor, error) {
		return c.base.ListContributors(ctx)
	})
}

func (c *Cache) GetContributor(ctx context.Context, login string) (domain.Contributor, error) {
	key := "contributor:" + strings.ToLower(strings.TrimSpace(login))
	return cached(ctx, c, key, func() (domain.Contributor, error) {
		return c.base.GetContributor(ctx, login)
	})
}

// GetReviewerMetrics caches present metrics only; ErrNotFound always reaches the base.
func (c *Cache) GetReviewerMetrics(ctx context.Context) (domain.ReviewerMetrics, error) {
	return cached(ctx, c, "metrics", func() (domain.ReviewerMetrics, error) {
		return c.base.GetReviewerMetrics(ctx)
	})
}

func (c *Cache) ListPulseEvents(ctx context.Context, limit int) ([]domain.PulseEvent, error) {
	return cached(ctx, c, fmt.Sprintf("events:%d", limit), func() ([]domain.PulseEvent, error) {
		return c.base.ListPulseEvents(ctx, limit)
	})
}

// Revision is never cached; it scopes every other key.
func (c *Cache) Revision(ctx context.Context) (uint64, error) {
	return c.base.Revision(ctx)
}

// ReplaceDataset writes through and evicts every key of the replaced revision.
func (c *Cache) ReplaceDataset(ctx context.Context, d app.Dataset) error {
	previous, revErr := c.base.Revision(ctx)
	if err := c.base.ReplaceDataset(ctx, d); err != nil {
		return err
	}
	if revErr == nil {
		c.evict(ctx, previous)
	}
	return nil
}

func cached[T any](ctx context.Context, c *Cache, name string, load func() (T, error)) (T, error) {
	if c.redis == nil {
		return load()
	}
	revision, err := c.base.Revision(ctx)
	if err != nil {
		return load()
	}
	key := cacheKey(revision, name)
	if value, ok := loadFromCache[T](ctx, c.redis, key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	c.store(ctx, key, value)
	return value, nil
}

func loadFromCache[T any](ctx context.Context, client *redis.Client, key string) (T, bool) {
	var zero T
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the repository without failing.
			_ = client.Del(ctx, key).Err()
		}
		return zero, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		_ = client.Del(ctx, key).Err()
		return zero, false
	}
	return value, true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, revision uint64) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, cacheKey(revision, "*"), 100).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func cacheKey(revision uint64, name string) string {
	return fmt.Sprintf("%s:r%d:%s", keyPrefix, revision, name)
}
