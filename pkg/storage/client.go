package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradecalendar/internal/domain"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client owns the gorm handle for one relational store.
type Client struct {
	DB *gorm.DB
}

// Options tune the connection pool and SQL logging.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

func Open(dialector gorm.Dialector, opts Options) (*Client, error) {
	level := gormlogger.Silent
	if opts.LogSQL {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(level),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return &Client{DB: db}, nil
}

// AutoMigrate creates or updates every calendar table and its unique indexes.
func (c *Client) AutoMigrate() error {
	if err := c.DB.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto-migrate calendar tables: %w", err)
	}
	return nil
}

// MigrateOrClose runs AutoMigrate and closes the client when it fails.
func (c *Client) MigrateOrClose() error {
	err := c.AutoMigrate()
	if err == nil {
		return nil
	}
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

func (c *Client) IsHealthy(ctx context.Context) bool {
	db, err := c.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (c *Client) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
