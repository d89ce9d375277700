package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"

	"gorm.io/gorm/clause"
)

// Save inserts e when it has no id and otherwise updates every column by id.
// Associations are never cascaded; callers bind foreign keys themselves.
// A non-nil version is checked and bumped.
func (s *Session) Save(ctx context.Context, e domain.Entity) error {
	db := s.conn(ctx)

	if e.GetID() == 0 {
		if err := db.Omit(clause.Associations).Create(e).Error; err != nil {
			return fmt.Errorf("insert %T: %w", e, err)
		}
		return nil
	}

	current := e.LockVersion()
	next := 1
	q := db.Model(e).Omit(clause.Associations).Select("*")
	if current != nil {
		q = q.Where("version = ?", *current)
		next = *current + 1
	}
	e.SetLockVersion(&next)

	res := q.Updates(e)
	if res.Error != nil {
		e.SetLockVersion(current)
		return fmt.Errorf("update %T id=%d: %w", e, e.GetID(), res.Error)
	}
	if res.RowsAffected == 0 {
		e.SetLockVersion(current)
		return fmt.Errorf("update %T id=%d: %w", e, e.GetID(), ErrStaleVersion)
	}
	return nil
}

// Persist saves e in its own transaction.
func (s *Session) Persist(ctx context.Context, e domain.Entity) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		return s.Save(ctx, e)
	})
}

// Remove deletes e by id. Entities without an id are ignored.
func (s *Session) Remove(ctx context.Context, e domain.Entity) error {
	if e.GetID() == 0 {
		return nil
	}
	if err := s.conn(ctx).Delete(e).Error; err != nil {
		return fmt.Errorf("delete %T id=%d: %w", e, e.GetID(), err)
	}
	return nil
}
