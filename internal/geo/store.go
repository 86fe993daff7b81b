package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/cache"
)

// Store is the geocode result cache.  Implementations swallow their own
// errors; a cache outage must never break search.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// MemoryStore keeps results in a process-local LRU.
type MemoryStore struct {
	lru *cache.LRU
}

// NewMemoryStore returns a MemoryStore holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{lru: cache.New(capacity)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.lru.AddTTL(key, val, ttl)
}

// RedisStore shares results between instances through Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		zap.L().Warn("geocode cache get", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return b, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, val, ttl).Err(); err != nil {
		zap.L().Warn("geocode cache set", zap.String("key", key), zap.Error(err))
	}
}
