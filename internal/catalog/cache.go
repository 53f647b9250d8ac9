package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

const cacheKeyPrefix = "catalog:product:"

type Store interface {
	Lookup(ctx context.Context, slug string) (domain.Product, bool, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// Cache is a read-through Redis cache in front of another catalog. Only found products are
// cached, so a newly added slug is visible immediately. Redis failures are logged and the
// underlying catalog answers instead.
type Cache struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Lookup(ctx context.Context, slug string) (domain.Product, bool, error) {
	key := cacheKeyPrefix + slug

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return p, true, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt catalog cache entry", "slug", slug)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "catalog cache read failed", "error", err, "slug", slug)
	}

	p, found, err := c.next.Lookup(ctx, slug)
	if err != nil || !found {
		return p, found, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "catalog cache write failed", "error", err, "slug", slug)
		}
	}

	return p, true, nil
}

func (c *Cache) List(ctx context.Context) ([]domain.Product, error) {
	return c.next.List(ctx)
}

// Invalidate drops cached entries so price changes take effect before the TTL runs out.
func (c *Cache) Invalidate(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = cacheKeyPrefix + slug
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateAll drops the cached entry of every product the underlying catalog lists.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	products, err := c.next.List(ctx)
	if err != nil {
		return err
	}
	slugs := make([]string, len(products))
	for i, p := range products {
		slugs[i] = p.Slug
	}
	return c.Invalidate(ctx, slugs...)
}
