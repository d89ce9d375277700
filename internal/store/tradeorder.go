package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"

	"go.uber.org/zap"
)

// PersistTradeOrder upserts an order and its fills in one transaction. An order
// without an id is matched on OrderKey and a fill without an id on ExecID, so a
// broker callback can be replayed without creating duplicates. Ids and versions
// assigned inside a transaction that rolls back are taken off again.
func (s *Session) PersistTradeOrder(ctx context.Context, order *domain.TradeOrder) error {
	if order.TradeID == 0 && order.Trade != nil {
		order.TradeID = order.Trade.ID
	}

	before := order.Aspect
	fillsBefore := make([]domain.Aspect, len(order.Fills))
	for i, fill := range order.Fills {
		fillsBefore[i] = fill.Aspect
	}

	err := s.InTx(ctx, func(ctx context.Context) error {
		if order.ID == 0 {
			existing, err := s.FindTradeOrderByKey(ctx, order.OrderKey)
			if err != nil {
				return err
			}
			if existing != nil {
				order.ID = existing.ID
				order.Version = existing.Version
			}
		}
		if err := s.Save(ctx, order); err != nil {
			return err
		}

		for _, fill := range order.Fills {
			fill.TradeOrderID = order.ID
			if fill.ID == 0 {
				existing, err := s.FindTradeOrderfillByExecID(ctx, fill.ExecID)
				if err != nil {
					return err
				}
				if existing != nil {
					fill.ID = existing.ID
					fill.Version = existing.Version
				}
			}
			if err := s.Save(ctx, fill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		order.Aspect = before
		for i, fill := range order.Fills {
			fill.Aspect = fillsBefore[i]
		}
		s.logger.Error("persist tradeorder failed",
			zap.Int("order_key", order.OrderKey),
			zap.Int("fills", len(order.Fills)),
			zap.Error(err),
		)
		return fmt.Errorf("persist tradeorder key=%d: %w", order.OrderKey, err)
	}
	return nil
}
