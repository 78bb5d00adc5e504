package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blueprinthub/gateway/internal/config"
)

// accessDecisionTTL keeps cached grants short-lived so share-token
// revocation takes effect quickly.
const accessDecisionTTL = 60 * time.Second

// AccessCache caches project access decisions in redis. A nil cache (no
// redis configured) is valid and simply always misses.
type AccessCache struct {
	rdb *redis.Client
}

// NewAccessCache returns nil when no redis address is configured.
func NewAccessCache(cfg *config.Config) *AccessCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	return &AccessCache{rdb: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})}
}

func accessKey(projectID, bearerToken, shareToken string) string {
	return fmt.Sprintf("access:%s:%s:%s", projectID, bearerToken, shareToken)
}

// Get returns (decision, found). Cache transport failures count as misses.
func (c *AccessCache) Get(ctx context.Context, projectID, bearerToken, shareToken string) (bool, bool) {
	if c == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, accessKey(projectID, bearerToken, shareToken)).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		log.Printf("access cache get: %v", err)
		return false, false
	}
	return val == "1", true
}

// Set stores a decision; failures are logged only.
func (c *AccessCache) Set(ctx context.Context, projectID, bearerToken, shareToken string, allowed bool) {
	if c == nil {
		return
	}
	val := "0"
	if allowed {
		val = "1"
	}
	if err := c.rdb.Set(ctx, accessKey(projectID, bearerToken, shareToken), val, accessDecisionTTL).Err(); err != nil {
		log.Printf("access cache set: %v", err)
	}
}

// Access combines the store check with the cache.
type Access struct {
	Store *Store
	Cache *AccessCache
}

// Check answers the project access question, consulting the cache first.
func (a *Access) Check(ctx context.Context, projectID, bearerToken, shareToken string) (bool, error) {
	if allowed, found := a.Cache.Get(ctx, projectID, bearerToken, shareToken); found {
		return allowed, nil
	}
	allowed, err := a.Store.Authorize(ctx, projectID, bearerToken, shareToken)
	if err != nil {
		return false, err
	}
	a.Cache.Set(ctx, projectID, bearerToken, shareToken, allowed)
	return allowed, nil
}
