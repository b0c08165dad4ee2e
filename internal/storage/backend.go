package storage

import (
	"context"
	"fmt"

	"homedash/internal/config"
	"homedash/internal/models"
)

// Backend persists the dashboard's apps and settings. The Load methods report
// found=false when nothing has been stored yet.
type Backend interface {
	LoadApps(ctx context.Context) (apps []models.App, found bool, err error)
	SaveApps(ctx context.Context, apps []models.App) error
	LoadSettings(ctx context.Context) (settings models.Settings, found bool, err error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	Close() error
}

// Open connects the backend selected by cfg.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		return NewFileBackend(cfg.StorePath())
	case config.BackendRedis:
		return NewRedisBackend(ctx, cfg.Storage.Redis.RedisOptions(), cfg.Storage.Redis.Prefix)
	case config.BackendPostgres:
		return NewPostgresBackend(ctx, cfg.Storage.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
