package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ieoms/backend/services/energy-service/internal/events"
	"ieoms/backend/services/energy-service/internal/models"
)

// RecommendationCache keeps generated recommendations per household and summary digest.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecommendationCache returns redis-backed cache.
func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

func cacheKey(householdID int64, digest string) string {
	return fmt.Sprintf("energy:recommendations:%d:%s", householdID, digest)
}

// Get returns cached recommendations; a miss is not an error.
func (c *RecommendationCache) Get(ctx context.Context, householdID int64, digest string) ([]models.Recommendation, bool, error) {
	result, err := c.client.Get(ctx, cacheKey(householdID, digest)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var recs []models.Recommendation
	if err := json.Unmarshal([]byte(result), &recs); err != nil {
		return nil, false, err
	}
	return recs, true, nil
}

// Set caches recommendations for the configured TTL.
func (c *RecommendationCache) Set(ctx context.Context, householdID int64, digest string, recs []models.Recommendation) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(householdID, digest), data, c.ttl).Err()
}

// Invalidate drops every cached entry of a household.
func (c *RecommendationCache) Invalidate(ctx context.Context, householdID int64) error {
	iter := c.client.Scan(ctx, 0, cacheKey(householdID, "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Publish implements events.Notifier: an ingestion invalidates the household's entries.
func (c *RecommendationCache) Publish(ctx context.Context, event events.IngestionEvent) error {
	return c.Invalidate(ctx, event.HouseholdID)
}
