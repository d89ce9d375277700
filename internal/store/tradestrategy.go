package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
)

// RemoveTradestrategy deletes ts together with its parameter overrides. Callers
// check HasTrades first; trades are never removed here.
func (s *Session) RemoveTradestrategy(ctx context.Context, ts *domain.Tradestrategy) error {
	db := s.conn(ctx)
	if err := db.Where("tradestrategy_id = ?", ts.ID).Delete(&domain.CodeValue{}).Error; err != nil {
		return fmt.Errorf("delete code values of tradestrategy id=%d: %w", ts.ID, err)
	}
	return s.Remove(ctx, ts)
}

// CountTrades counts the stored trades of the tradestrategy with id.
func (s *Session) CountTrades(ctx context.Context, tradestrategyID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Trade{}).Where("tradestrategy_id = ?", tradestrategyID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count trades of tradestrategy id=%d: %w", tradestrategyID, err)
	}
	return n, nil
}
