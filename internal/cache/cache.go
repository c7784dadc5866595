// Package cache caches formatted recommendation sets: an in-process LRU in
// front of Redis, so a restarted instance warms from Redis and a hot subject
// never leaves process memory.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/health-recommendation-engine/internal/domain"
)

// Client wraps Redis with an LRU front for recommendation-set caching.
type Client struct {
	redis      *redis.Client
	local      *lru.Cache[string, *CachedSet]
	defaultTTL time.Duration
}

// CachedSet represents a cached recommendation set with metadata.
type CachedSet struct {
	Data      *domain.RecommendationSet `json:"data"`
	CachedAt  time.Time                 `json:"cached_at"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

// NewClient creates a new cache client.
func NewClient(config *domain.CacheConfig) (*Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Apply cache-specific configurations
	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	size := config.LRUSize
	if size <= 0 {
		size = 256
	}
	local, err := lru.New[string, *CachedSet](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &Client{
		redis:      client,
		local:      local,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// GetSet retrieves a cached recommendation set for a subject. The second
// return reports a cache hit.
func (c *Client) GetSet(ctx context.Context, subjectID string) (*domain.RecommendationSet, bool, error) {
	key := generateSubjectKey(subjectID)

	if cached, ok := c.local.Get(key); ok {
		if time.Now().Before(cached.ExpiresAt) {
			return cached.Data, true, nil
		}
		c.local.Remove(key)
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached set: %w", err)
	}

	var cached CachedSet
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	// Check if expired
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	c.local.Add(key, &cached)
	return cached.Data, true, nil
}

// SetSet caches a recommendation set for a subject.
func (c *Client) SetSet(ctx context.Context, set *domain.RecommendationSet, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	key := generateSubjectKey(set.SubjectID)

	cached := &CachedSet{
		Data:      set,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached set: %w", err)
	}

	c.local.Add(key, cached)
	return c.redis.Set(ctx, key, jsonData, ttl).Err()
}

// InvalidateSubject removes the cached set for a subject from both tiers.
func (c *Client) InvalidateSubject(ctx context.Context, subjectID string) error {
	key := generateSubjectKey(subjectID)
	c.local.Remove(key)
	return c.redis.Del(ctx, key).Err()
}

// Ping checks if the Redis connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.redis.Close()
}

// generateSubjectKey creates a standardized cache key for a subject.
func generateSubjectKey(subjectID string) string {
	hash := sha256.Sum256([]byte(subjectID))
	return fmt.Sprintf("recs:subject:%x", hash[:8])
}
