package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bimuz/bimuz-backend/internal/config"
)

// RedisTokenStore keeps the gateway token in Redis so every replica shares it.
type RedisTokenStore struct {
	rdb *redis.Client
	key string
}

// NewRedisTokenStore creates a token store for an application id.
func NewRedisTokenStore(rdb *redis.Client, applicationID string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, key: config.CacheKey.MulticardTokenKey(applicationID)}
}

func (s *RedisTokenStore) Get(ctx context.Context) (string, error) {
	t, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return t, err
}

func (s *RedisTokenStore) Set(ctx context.Context, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key, token, ttl).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// MemoryTokenStore is an in-process TokenStore for tools and tests.
type MemoryTokenStore struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewMemoryTokenStore creates an empty in-process store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || time.Now().After(s.expires) {
		return "", nil
	}
	return s.token, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expires = time.Now().Add(ttl)
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
