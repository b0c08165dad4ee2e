package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"homedash/internal/models"
)

const (
	AppsKey     = "network-dashboard-apps-config"
	SettingsKey = "network-dashboard-settings"
)

// RedisBackend stores apps and settings as JSON strings under two keys.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to redis and verifies the connection.
func NewRedisBackend(ctx context.Context, opts *redis.Options, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisBackendFromClient(client, prefix), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// LoadApps implements Backend.
func (r *RedisBackend) LoadApps(ctx context.Context) ([]models.App, bool, error) {
	var apps []models.App
	found, err := r.get(ctx, AppsKey, &apps)
	if err != nil || !found {
		return nil, found, err
	}
	if apps == nil {
		apps = []models.App{}
	}
	return apps, true, nil
}

// SaveApps implements Backend.
func (r *RedisBackend) SaveApps(ctx context.Context, apps []models.App) error {
	if apps == nil {
		apps = []models.App{}
	}
	return r.set(ctx, AppsKey, apps)
}

// LoadSettings implements Backend.
func (r *RedisBackend) LoadSettings(ctx context.Context) (models.Settings, bool, error) {
	var settings models.Settings
	found, err := r.get(ctx, SettingsKey, &settings)
	return settings, found, err
}

// SaveSettings implements Backend.
func (r *RedisBackend) SaveSettings(ctx context.Context, settings models.Settings) error {
	return r.set(ctx, SettingsKey, settings)
}

// Close implements Backend.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) key(name string) string {
	return r.prefix + name
}

func (r *RedisBackend) get(ctx context.Context, name string, out any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", r.key(name), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", r.key(name), err)
	}
	return true, nil
}

func (r *RedisBackend) set(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key(name), err)
	}
	if err := r.client.Set(ctx, r.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", r.key(name), err)
	}
	return nil
}
