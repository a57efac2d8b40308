// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// redisCache is the Cache implementation backed by a single shared
// *redis.Client, scoped to one family. It never lets a Redis error escape:
// failures are logged at debug and treated as a miss, matching the source
// system's "no exception ever escapes this layer" contract.
type redisCache struct {
	client  *redis.Client
	family  Family
	log     *slog.Logger
	metrics *Metrics
}

// newRedisCache constructs a family-scoped Cache over client.
func newRedisCache(client *redis.Client, family Family, log *slog.Logger, metrics *Metrics) Cache {
	return &redisCache{client: client, family: family, log: log, metrics: metrics}
}

func (c *redisCache) Put(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_marshal_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "put").Inc()
		return nil
	}
	if err := c.client.Set(ctx, key, payload, 0).Err(); err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_put_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "put").Inc()
		return nil
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.DebugContext(ctx, "vaultiq_cache_get_failed", slog.String("family", string(c.family)), slog.Any("error", err))
			c.metrics.CacheErrors.WithLabelValues(string(c.family), "get").Inc()
		}
		c.metrics.CacheMisses.WithLabelValues(string(c.family)).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_unmarshal_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "get").Inc()
		return false
	}
	c.metrics.CacheHits.WithLabelValues(string(c.family)).Inc()
	return true
}

func (c *redisCache) Evict(ctx context.Context, key string) bool {
	n, err := c.client.Del(ctx, key).Result()
	if err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_evict_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "evict").Inc()
		return false
	}
	return n > 0
}

func (c *redisCache) MultiGet(ctx context.Context, keys []string, newDest func() any) map[string]any {
	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_multiget_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "multiget").Inc()
		return out
	}
	for i, v := range values {
		if v == nil {
			c.metrics.CacheMisses.WithLabelValues(string(c.family)).Inc()
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		dest := newDest()
		if err := json.Unmarshal([]byte(str), dest); err != nil {
			continue
		}
		out[keys[i]] = dest
		c.metrics.CacheHits.WithLabelValues(string(c.family)).Inc()
	}
	return out
}

func (c *redisCache) MultiEvict(ctx context.Context, keys []string) int {
	if len(keys) == 0 {
		return 0
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		c.log.DebugContext(ctx, "vaultiq_cache_multievict_failed", slog.String("family", string(c.family)), slog.Any("error", err))
		c.metrics.CacheErrors.WithLabelValues(string(c.family), "multievict").Inc()
		return 0
	}
	return int(n)
}

// redisCacheProvider is the concrete CacheProvider. Redis has no notion of
// "named caches" like a JVM CacheManager, so a configured cacheName only
// decides whether a family gets a cache at all: every resolved cache shares
// the one client's keyspace, and keys stay apart through the per-family key
// builders in keys.go — grounded on internal/platform/redis's single shared
// client.
type redisCacheProvider struct {
	client  *redis.Client
	log     *slog.Logger
	metrics *Metrics
	// known lists the cache names this provider is willing to resolve.
	// For a name absent from this set GetCache reports false, and the Mode
	// Gate then falls back to the silent no-op absentCache.
	known map[string]struct{}
}

// NewRedisCacheProvider constructs a CacheProvider over client, accepting
// any of knownNames as a resolvable cache. A nil or empty knownNames
// resolves every name (suitable for a single shared Redis deployment).
func NewRedisCacheProvider(client *redis.Client, log *slog.Logger, metrics *Metrics, knownNames ...string) CacheProvider {
	var known map[string]struct{}
	if len(knownNames) > 0 {
		known = make(map[string]struct{}, len(knownNames))
		for _, n := range knownNames {
			known[n] = struct{}{}
		}
	}
	return &redisCacheProvider{client: client, log: log, metrics: metrics, known: known}
}

func (p *redisCacheProvider) GetCache(family Family, cfg FamilyConfig) (Cache, bool) {
	if p.client == nil {
		return nil, false
	}
	if p.known != nil {
		if _, ok := p.known[cfg.CacheName]; !ok {
			return nil, false
		}
	}
	return newRedisCache(p.client, family, p.log, p.metrics), true
}
