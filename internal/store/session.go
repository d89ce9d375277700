package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session is the store handle shared by the engine, the ingestor and the lookups.
// It also owns the writer lock that serialises multi-row writers in a process.
type Session struct {
	db     *gorm.DB
	logger *zap.Logger

	writeMu sync.Mutex
}

func NewSession(db *gorm.DB, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{db: db, logger: logger}
}

func (s *Session) DB() *gorm.DB {
	return s.db
}

func (s *Session) Logger() *zap.Logger {
	return s.logger
}

// LockWriter blocks until no other reconciliation or ingestion is running and
// returns the unlock func.
func (s *Session) LockWriter() func() {
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

type txKey struct{}

// WithTx returns a context that makes session methods run inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// conn picks the transaction carried by ctx, else the pool.
func (s *Session) conn(ctx context.Context) *gorm.DB {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// InTx runs fn in one transaction. fn must use the context it is given.
func (s *Session) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// Tx is an explicitly managed transaction for writers that commit in chunks.
type Tx struct {
	db     *gorm.DB
	ctx    context.Context
	logger *zap.Logger
	done   bool
}

func (s *Session) Begin(ctx context.Context) (*Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &Tx{db: tx, ctx: WithTx(ctx, tx), logger: s.logger}, nil
}

// Context carries the transaction into session methods.
func (t *Tx) Context() context.Context {
	return t.ctx
}

func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	return t.db.Commit().Error
}

// Rollback is a no-op after Commit, so it can be deferred.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	if err := t.db.Rollback().Error; err != nil {
		t.logger.Warn("rollback failed", zap.Error(err))
	}
}
