package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consular/pkg/cache"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "consular:credentials:"

// RedisStore shares tokens between portal replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings. A zero ttl keeps tokens until cleared.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client, err := cache.Connect(ctx, addr, password, db)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Token(ctx context.Context, kind Kind) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown credential kind %q", kind)
	}
	token, err := s.client.Get(ctx, redisKeyPrefix+string(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (s *RedisStore) SetToken(ctx context.Context, kind Kind, token string) error {
	if !kind.valid() {
		return fmt.Errorf("unknown credential kind %q", kind)
	}
	if token == "" {
		return s.client.Del(ctx, redisKeyPrefix+string(kind)).Err()
	}
	return s.client.Set(ctx, redisKeyPrefix+string(kind), token, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, kind Kind) error {
	return s.SetToken(ctx, kind, "")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
