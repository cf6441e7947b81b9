// Package cache keeps recently observed screen state in Redis: the last
// observed liveness and the last served page. Redis is optional; a nil
// *Cache is safe everywhere and behaves as a permanent miss. The store
// remains the source of truth.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Cache struct {
	rdb *redis.Client
}

func New(addr, username, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	return &Cache{rdb: rdb}
}

func statusKey(screenID string) string { return fmt.Sprintf("screen:%s:status", screenID) }
func pageKey(screenID string) string   { return fmt.Sprintf("screen:%s:page", screenID) }

// SetStatus caches the observed liveness of a screen with a TTL so a stale
// entry ages out between poll cycles.
func (c *Cache) SetStatus(ctx context.Context, screenID string, online bool, ttl time.Duration) {
	if c == nil {
		return
	}
	val := "offline"
	if online {
		val = "online"
	}
	if err := c.rdb.Set(ctx, statusKey(screenID), val, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("screen_id", screenID).Msg("failed to cache screen status")
	}
}

// Status returns the cached liveness and whether a cached value was present.
func (c *Cache) Status(ctx context.Context, screenID string) (bool, bool) {
	if c == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, statusKey(screenID)).Result()
	if err != nil {
		return false, false
	}
	return val == "online", true
}

// SetPage caches the last rendered document for cheap previews.
func (c *Cache) SetPage(ctx context.Context, screenID, html string) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, pageKey(screenID), html, 0).Err(); err != nil {
		log.Warn().Err(err).Str("screen_id", screenID).Msg("failed to cache screen page")
	}
}

// Page returns the cached document and whether one was present.
func (c *Cache) Page(ctx context.Context, screenID string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, pageKey(screenID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// DropPage removes the cached document, used when a screen stops serving.
func (c *Cache) DropPage(ctx context.Context, screenID string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, pageKey(screenID)).Err(); err != nil {
		log.Warn().Err(err).Str("screen_id", screenID).Msg("failed to drop cached screen page")
	}
}
