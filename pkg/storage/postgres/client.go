package postgres

import (
	"context"
	"fmt"

	"tradecalendar/config"
	"tradecalendar/pkg/storage"

	"gorm.io/driver/postgres"
)

func NewClient(dsn string, opts storage.Options) (*storage.Client, error) {
	client, err := storage.Open(postgres.Open(dsn), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return client, nil
}

// InitializeAndMigrate connects to Postgres, optionally creates the DB, and runs AutoMigrate.
func InitializeAndMigrate(ctx context.Context, cfg config.PostgresConfig, env string, createDB bool) (*storage.Client, error) {
	if createDB {
		if _, err := CreateDatabase(ctx, cfg, env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN(env), Options(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.MigrateOrClose(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

// Options maps the pool settings of cfg.
func Options(cfg config.PostgresConfig) storage.Options {
	return storage.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}
