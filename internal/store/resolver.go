package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradecalendar/internal/domain"

	"gorm.io/gorm"
)

// first returns the lowest-id row matching q, or nil when there is none.
func first[T any](q *gorm.DB) (*T, error) {
	var out T
	if err := q.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// FindContractByKey matches on the non-empty key fields. Expiry is compared by
// year and month only.
func (s *Session) FindContractByKey(ctx context.Context, key domain.ContractKey) (*domain.Contract, error) {
	q := s.conn(ctx).Model(&domain.Contract{})
	if key.SecType != "" {
		q = q.Where("sec_type = ?", key.SecType)
	}
	if key.Symbol != "" {
		q = q.Where("symbol = ?", key.Symbol)
	}
	if key.Exchange != "" {
		q = q.Where("exchange = ?", key.Exchange)
	}
	if key.Currency != "" {
		q = q.Where("currency = ?", key.Currency)
	}
	if from, to, ok := key.ExpiryMonth(); ok {
		q = q.Where("expiry >= ? AND expiry < ?", from, to)
	}

	c, err := first[domain.Contract](q)
	if err != nil {
		return nil, fmt.Errorf("find contract %s/%s/%s/%s: %w", key.SecType, key.Symbol, key.Exchange, key.Currency, err)
	}
	return c, nil
}

func (s *Session) FindTradingdayByOpenClose(ctx context.Context, open, close time.Time) (*domain.Tradingday, error) {
	q := s.conn(ctx).Where("open_date = ? AND close_date = ?", open.UTC(), close.UTC())
	d, err := first[domain.Tradingday](q)
	if err != nil {
		return nil, fmt.Errorf("find tradingday open=%s close=%s: %w", open.Format(time.RFC3339), close.Format(time.RFC3339), err)
	}
	return d, nil
}

func (s *Session) FindStrategyByName(ctx context.Context, name string) (*domain.Strategy, error) {
	st, err := first[domain.Strategy](s.conn(ctx).Where("name = ?", name))
	if err != nil {
		return nil, fmt.Errorf("find strategy %q: %w", name, err)
	}
	return st, nil
}

func (s *Session) FindTradeAccountByNumber(ctx context.Context, number string) (*domain.TradeAccount, error) {
	a, err := first[domain.TradeAccount](s.conn(ctx).Where("account_number = ?", number))
	if err != nil {
		return nil, fmt.Errorf("find account %q: %w", number, err)
	}
	return a, nil
}

func (s *Session) FindPortfolioByName(ctx context.Context, name string) (*domain.Portfolio, error) {
	p, err := first[domain.Portfolio](s.conn(ctx).Where("name = ?", name))
	if err != nil {
		return nil, fmt.Errorf("find portfolio %q: %w", name, err)
	}
	return p, nil
}

// TradestrategyKey identifies a tradestrategy by its resolved parent ids.
// Zero ids are left out of the filter.
type TradestrategyKey struct {
	TradingdayID   uint
	StrategyID     uint
	ContractID     uint
	TradeAccountID uint
}

func (s *Session) FindTradestrategyByKey(ctx context.Context, key TradestrategyKey) (*domain.Tradestrategy, error) {
	q := s.conn(ctx).Model(&domain.Tradestrategy{})
	if key.TradingdayID != 0 {
		q = q.Where("tradingday_id = ?", key.TradingdayID)
	}
	if key.StrategyID != 0 {
		q = q.Where("strategy_id = ?", key.StrategyID)
	}
	if key.ContractID != 0 {
		q = q.Where("contract_id = ?", key.ContractID)
	}
	if key.TradeAccountID != 0 {
		q = q.Where("tradeaccount_id = ?", key.TradeAccountID)
	}
	ts, err := first[domain.Tradestrategy](q)
	if err != nil {
		return nil, fmt.Errorf("find tradestrategy %+v: %w", key, err)
	}
	return ts, nil
}

func (s *Session) FindTradeOrderByKey(ctx context.Context, orderKey int) (*domain.TradeOrder, error) {
	o, err := first[domain.TradeOrder](s.conn(ctx).Where("order_key = ?", orderKey))
	if err != nil {
		return nil, fmt.Errorf("find tradeorder key=%d: %w", orderKey, err)
	}
	return o, nil
}

func (s *Session) FindTradeOrderfillByExecID(ctx context.Context, execID string) (*domain.TradeOrderfill, error) {
	f, err := first[domain.TradeOrderfill](s.conn(ctx).Where("exec_id = ?", execID))
	if err != nil {
		return nil, fmt.Errorf("find tradeorderfill exec=%s: %w", execID, err)
	}
	return f, nil
}

func (s *Session) FindCodeTypeByNameType(ctx context.Context, name, codeType string) (*domain.CodeType, error) {
	q := s.conn(ctx).Preload("CodeAttributes").Where("name = ?", name)
	if codeType != "" {
		q = q.Where("type = ?", codeType)
	}
	ct, err := first[domain.CodeType](q)
	if err != nil {
		return nil, fmt.Errorf("find codetype %s/%s: %w", name, codeType, err)
	}
	return ct, nil
}
