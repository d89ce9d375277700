package store

import (
	"context"
	"fmt"
	"time"

	"tradecalendar/internal/domain"

	"gorm.io/gorm"
)

// FindByID returns the row with the given surrogate id, or nil.
func FindByID[T any](ctx context.Context, s *Session, id uint) (*T, error) {
	out, err := first[T](s.conn(ctx).Where("id = ?", id))
	if err != nil {
		var zero T
		return nil, fmt.Errorf("find %T id=%d: %w", zero, id, err)
	}
	return out, nil
}

// FindTradestrategiesByOpen loads every tradestrategy of the day(s) opening at
// open, with their parents and trades.
func (s *Session) FindTradestrategiesByOpen(ctx context.Context, open time.Time) ([]*domain.Tradestrategy, error) {
	db := s.conn(ctx)
	days := db.Model(&domain.Tradingday{}).Select("id").Where("open_date = ?", open.UTC())

	var out []*domain.Tradestrategy
	err := db.
		Preload("Tradingday").
		Preload("Strategy").
		Preload("Contract").
		Preload("TradeAccount").
		Preload("Trades").
		Where("tradingday_id IN (?)", days).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find tradestrategies open=%s: %w", open.Format(time.RFC3339), err)
	}
	return out, nil
}

// FindTradingdaysByDateRange returns the days opening in [from, to) with their
// tradestrategies.
func (s *Session) FindTradingdaysByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Tradingday, error) {
	var out []*domain.Tradingday
	err := s.conn(ctx).
		Preload("Tradestrategies", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Tradestrategies.Strategy").
		Preload("Tradestrategies.Contract").
		Preload("Tradestrategies.TradeAccount").
		Preload("Tradestrategies.Trades").
		Where("open_date >= ? AND open_date < ?", from.UTC(), to.UTC()).
		Order("open_date").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find tradingdays %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	for _, d := range out {
		for _, ts := range d.Tradestrategies {
			ts.Tradingday = d
		}
	}
	return out, nil
}

// FindMaxRuleVersion returns the highest rule version of a strategy, 0 if it
// has no rules.
func (s *Session) FindMaxRuleVersion(ctx context.Context, strategyID uint) (int, error) {
	var version int
	err := s.conn(ctx).
		Model(&domain.Rule{}).
		Select("COALESCE(MAX(rule_version), 0)").
		Where("strategy_id = ?", strategyID).
		Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("max rule version strategy=%d: %w", strategyID, err)
	}
	return version, nil
}

// FindCandleCount counts stored bars of any size for a (day, contract) pair.
func (s *Session) FindCandleCount(ctx context.Context, tradingdayID, contractID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).
		Model(&domain.Candle{}).
		Where("tradingday_id = ? AND contract_id = ?", tradingdayID, contractID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count candles day=%d contract=%d: %w", tradingdayID, contractID, err)
	}
	return n, nil
}

func (s *Session) FindCandles(ctx context.Context, contractID, tradingdayID uint, barSize int) ([]*domain.Candle, error) {
	var out []*domain.Candle
	err := s.conn(ctx).
		Where("contract_id = ? AND tradingday_id = ? AND bar_size = ?", contractID, tradingdayID, barSize).
		Order("start_period").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find candles contract=%d day=%d bar=%d: %w", contractID, tradingdayID, barSize, err)
	}
	return out, nil
}

// FindTradeOrderMaxKey returns the highest order key handed out so far, 0 if none.
func (s *Session) FindTradeOrderMaxKey(ctx context.Context) (int, error) {
	var key int
	err := s.conn(ctx).
		Model(&domain.TradeOrder{}).
		Select("COALESCE(MAX(order_key), 0)").
		Scan(&key).Error
	if err != nil {
		return 0, fmt.Errorf("max order key: %w", err)
	}
	return key, nil
}

func (s *Session) FindDefaultPortfolio(ctx context.Context) (*domain.Portfolio, error) {
	p, err := first[domain.Portfolio](s.conn(ctx).Where("is_default = ?", true))
	if err != nil {
		return nil, fmt.Errorf("find default portfolio: %w", err)
	}
	return p, nil
}

func (s *Session) FindDefaultAccount(ctx context.Context) (*domain.TradeAccount, error) {
	a, err := first[domain.TradeAccount](s.conn(ctx).Where("is_default = ?", true))
	if err != nil {
		return nil, fmt.Errorf("find default account: %w", err)
	}
	return a, nil
}

func (s *Session) FindStrategies(ctx context.Context) ([]*domain.Strategy, error) {
	var out []*domain.Strategy
	if err := s.conn(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find strategies: %w", err)
	}
	return out, nil
}

func (s *Session) FindContracts(ctx context.Context, secType string) ([]*domain.Contract, error) {
	q := s.conn(ctx).Order("symbol")
	if secType != "" {
		q = q.Where("sec_type = ?", secType)
	}
	var out []*domain.Contract
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find contracts: %w", err)
	}
	return out, nil
}
