package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"tradecalendar/pkg/storage"

	"gorm.io/driver/sqlite"
)

// NewClient opens (and creates) a SQLite file store. WAL lets lookups read
// while a writer holds its transaction open.
func NewClient(path string, opts storage.Options) (*storage.Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
	client, err := storage.Open(sqlite.Open(dsn), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return client, nil
}

// InitializeAndMigrate opens path and runs AutoMigrate.
func InitializeAndMigrate(path string, opts storage.Options) (*storage.Client, error) {
	client, err := NewClient(path, opts)
	if err != nil {
		return nil, err
	}
	if err := client.MigrateOrClose(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return client, nil
}
