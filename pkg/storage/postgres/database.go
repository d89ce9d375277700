package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tradecalendar/config"

	"github.com/lib/pq"
)

// CreateDatabase creates cfg.DBName on the server behind cfg. It reports
// false when the database was already there.
func CreateDatabase(ctx context.Context, cfg config.PostgresConfig, env string) (bool, error) {
	if cfg.DBName == "" {
		return false, fmt.Errorf("postgres dbname is empty")
	}

	db, err := sql.Open("postgres", cfg.ServerDSN(env))
	if err != nil {
		return false, fmt.Errorf("open server connection: %w", err)
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("look up database %q: %w", cfg.DBName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.DBName)); err != nil {
		return false, fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}
	return true, nil
}
