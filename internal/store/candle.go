package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
)

// DeleteCandles removes every stored bar for (contract, day, bar size) and
// returns how many went.
func (s *Session) DeleteCandles(ctx context.Context, contractID, tradingdayID uint, barSize int) (int64, error) {
	res := s.conn(ctx).
		Where("contract_id = ? AND tradingday_id = ? AND bar_size = ?", contractID, tradingdayID, barSize).
		Delete(&domain.Candle{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete candles contract=%d day=%d bar=%d: %w", contractID, tradingdayID, barSize, res.Error)
	}
	return res.RowsAffected, nil
}
