package credentials

import (
	"context"
	"fmt"

	"consular/pkg/config"
)

// Open builds the Store selected by CREDENTIALS_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Credentials.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Credentials.File), nil
	case "redis":
		return NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, 0)
	default:
		return nil, fmt.Errorf("unsupported credentials backend %q", cfg.Credentials.Backend)
	}
}
