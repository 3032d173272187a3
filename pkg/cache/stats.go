// Package cache provides a short-TTL Redis cache for per-listing bid
// statistics. It is strictly an optimization: every operation degrades to a
// no-op when Redis is absent or failing, and callers fall through to Mongo.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gemnet/pkg/logger"
	"gemnet/pkg/model"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewStatsCache accepts a nil client; all methods then report misses.
func NewStatsCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *StatsCache) key(listingID string) string {
	return fmt.Sprintf("bid_stats:%s", listingID)
}

func (c *StatsCache) Get(ctx context.Context, listingID string) (*model.BidStatistics, error) {
	if c.client == nil {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, c.key(listingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.log.Warn("Stats cache read failed", "listing_id", listingID, "error", err)
		return nil, ErrCacheMiss
	}

	var stats model.BidStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn("Stats cache entry corrupt, dropping", "listing_id", listingID, "error", err)
		c.Invalidate(ctx, listingID)
		return nil, ErrCacheMiss
	}

	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *model.BidStatistics) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn("Failed to marshal bid statistics", "listing_id", stats.ListingID, "error", err)
		return
	}

	if err := c.client.Set(ctx, c.key(stats.ListingID), data, c.ttl).Err(); err != nil {
		c.log.Warn("Stats cache write failed", "listing_id", stats.ListingID, "error", err)
	}
}

// Invalidate removes a listing's cached statistics. Called after every
// accepted bid and at resolution so stale highs never outlive a write.
func (c *StatsCache) Invalidate(ctx context.Context, listingID string) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, c.key(listingID)).Err(); err != nil {
		c.log.Warn("Stats cache invalidation failed", "listing_id", listingID, "error", err)
	}
}
