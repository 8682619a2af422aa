package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// RedisStore deduplicates webhook deliveries across replicas. The first
// claim of a delivery key wins; replays inside the TTL are dropped.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a deduplication store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Claim atomically marks a delivery as seen. It returns true when this
// call was the first claim, false on a replay.
func (s *RedisStore) Claim(ctx context.Context, platform string, payload []byte) (bool, error) {
	digest := sha256.Sum256(payload)
	key := fmt.Sprintf("webhook:dedup:%s:%s", platform, hex.EncodeToString(digest[:]))

	first, err := s.client.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook delivery: %w", err)
	}
	return first, nil
}
