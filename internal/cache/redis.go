package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPrefix namespaces page cache keys.
const redisPrefix = "admissions:page:"

// Verify interface compliance
var (
	_ Store = (*DiskStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// RedisStore shares cached pages between processes. Entries carry the same
// envelope as DiskStore and also get a Redis TTL so stale keys disappear.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now, logger: logger}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, err := s.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("Failed to load cache", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || len(entry.Data) == 0 {
		s.logger.Warn("Ignoring malformed cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if expired(entry.Timestamp, s.now(), s.ttl) {
		return nil, false
	}
	return entry.Data, true
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, payload any) error {
	data, err := newEntry(payload, s.now())
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, redisPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}
