// Package cache opens the Redis connections shared by the credential store and the
// request limit middleware.
package cache

import (
	"context"
	"fmt"

	"consular/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Connect returns a client that answered a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}

func FromConfig(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	return Connect(ctx, cfg.URL, cfg.Password, cfg.DB)
}
