package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homedash/internal/models"
)

const settingsRowID = "dashboard"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dashboard_apps (
		id         TEXT PRIMARY KEY,
		config     JSONB NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS dashboard_settings (
		id         TEXT PRIMARY KEY,
		config     JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// PostgresBackend stores each app as a JSONB row and settings as a single row.
// An empty app table reads as "nothing stored".
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and creates the tables if needed.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	b := &PostgresBackend{pool: pool}
	if err := b.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// LoadApps implements Backend.
func (b *PostgresBackend) LoadApps(ctx context.Context) ([]models.App, bool, error) {
	rows, err := b.pool.Query(ctx, `SELECT config FROM dashboard_apps ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, false, fmt.Errorf("query apps: %w", err)
	}
	raws, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, false, fmt.Errorf("scan apps: %w", err)
	}
	if len(raws) == 0 {
		return nil, false, nil
	}

	apps := make([]models.App, 0, len(raws))
	for _, raw := range raws {
		var app models.App
		if err := json.Unmarshal(raw, &app); err != nil {
			return nil, false, fmt.Errorf("parse app row: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, true, nil
}

// SaveApps replaces every app row inside one transaction.
func (b *PostgresBackend) SaveApps(ctx context.Context, apps []models.App) error {
	rows, err := appRows(apps)
	if err != nil {
		return err
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM dashboard_apps`); err != nil {
		return fmt.Errorf("clear apps: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dashboard_apps (id, config, sort_order) VALUES ($1, $2, $3)`,
			row.id, row.config, row.sortOrder,
		); err != nil {
			return fmt.Errorf("insert app %s: %w", row.id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit apps: %w", err)
	}
	return nil
}

// LoadSettings implements Backend.
func (b *PostgresBackend) LoadSettings(ctx context.Context) (models.Settings, bool, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT config FROM dashboard_settings WHERE id = $1`, settingsRowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("query settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.Settings{}, false, fmt.Errorf("parse settings: %w", err)
	}
	return settings, true, nil
}

// SaveSettings upserts the settings row.
func (b *PostgresBackend) SaveSettings(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = b.pool.Exec(ctx,
		`INSERT INTO dashboard_settings (id, config, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = now()`,
		settingsRowID, json.RawMessage(data),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

type appRow struct {
	id        string
	config    json.RawMessage
	sortOrder int
}

func appRows(apps []models.App) ([]appRow, error) {
	rows := make([]appRow, 0, len(apps))
	for i, app := range apps {
		data, err := json.Marshal(app)
		if err != nil {
			return nil, fmt.Errorf("encode app %s: %w", app.ID, err)
		}
		rows = append(rows, appRow{id: app.ID, config: data, sortOrder: i})
	}
	return rows, nil
}
