package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/store"
	"tradecalendar/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// go test -v --run ^TestFindByIDMissing$
func TestFindByIDMissing(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	got, err := store.FindByID[domain.Contract](ctx, s, 99)
	require.NoError(t, err)
	assert.Nil(t, got)

	c := storetest.Stock("AAPL")
	require.NoError(t, s.Save(ctx, c))
	got, err = store.FindByID[domain.Contract](ctx, s, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Symbol)
}

// go test -v --run ^TestPersistRuleVersions$
func TestPersistRuleVersions(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	st := &domain.Strategy{Name: "ORB"}
	require.NoError(t, s.Save(ctx, st))

	latest, err := s.FindMaxRuleVersion(ctx, st.ID)
	require.NoError(t, err)
	assert.Zero(t, latest)

	for want := 1; want <= 3; want++ {
		rule := &domain.Rule{StrategyID: st.ID, Comment: "rev", Body: []byte("entry: breakout")}
		require.NoError(t, s.PersistRule(ctx, rule))
		assert.Equal(t, want, rule.RuleVersion)

		latest, err = s.FindMaxRuleVersion(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, want, latest)
	}

	// Another strategy starts from scratch.
	other := &domain.Strategy{Name: "VWAP"}
	require.NoError(t, s.Save(ctx, other))
	latest, err = s.FindMaxRuleVersion(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, latest)
}

// go test -v --run ^TestFindTradestrategiesByOpen$
func TestFindTradestrategiesByOpen(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	mon := storetest.Day(2024, time.March, 4)
	tue := storetest.Day(2024, time.March, 5)
	require.NoError(t, s.Save(ctx, mon))
	require.NoError(t, s.Save(ctx, tue))

	st := &domain.Strategy{Name: "ORB"}
	acct := &domain.TradeAccount{AccountNumber: "DU100"}
	require.NoError(t, s.Save(ctx, st))
	require.NoError(t, s.Save(ctx, acct))

	for _, day := range []*domain.Tradingday{mon, tue} {
		for _, sym := range []string{"AAPL", "MSFT"} {
			c, err := s.FindContractByKey(ctx, storetest.Stock(sym).Key())
			require.NoError(t, err)
			if c == nil {
				c = storetest.Stock(sym)
				require.NoError(t, s.Save(ctx, c))
			}
			require.NoError(t, s.Save(ctx, &domain.Tradestrategy{
				TradingdayID: day.ID, StrategyID: st.ID, ContractID: c.ID, TradeAccountID: acct.ID, BarSize: 300,
			}))
		}
	}

	rows, err := s.FindTradestrategiesByOpen(ctx, mon.Open)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, ts := range rows {
		require.NotNil(t, ts.Tradingday)
		assert.Equal(t, mon.ID, ts.Tradingday.ID)
		assert.Equal(t, "ORB", ts.Strategy.Name)
		assert.Equal(t, "DU100", ts.TradeAccount.AccountNumber)
		assert.NotNil(t, ts.Contract)
	}

	days, err := s.FindTradingdaysByDateRange(ctx, mon.Open.Add(-time.Hour), tue.Open.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Len(t, days[1].Tradestrategies, 2)
	assert.Same(t, days[1], days[1].Tradestrategies[0].Tradingday)
}

// go test -v --run ^TestSaveStaleVersion$
func TestSaveStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	first := storetest.Stock("AAPL")
	require.NoError(t, s.Save(ctx, first))

	second, err := store.FindByID[domain.Contract](ctx, s, first.ID)
	require.NoError(t, err)

	first.Description = "Apple"
	require.NoError(t, s.Save(ctx, first))
	require.NotNil(t, first.Version)

	second.Version = first.Version
	second.Description = "Apple Inc"
	require.NoError(t, s.Save(ctx, second))
	assert.Equal(t, 2, *second.Version)

	first.Description = "lost update"
	err = s.Save(ctx, first)
	assert.ErrorIs(t, err, store.ErrStaleVersion)
	assert.Equal(t, 1, *first.Version)

	got, err := store.FindByID[domain.Contract](ctx, s, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", got.Description)
}

// go test -v --run ^TestPersistTradeOrderReplay$
func TestPersistTradeOrderReplay(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	key, err := s.FindTradeOrderMaxKey(ctx)
	require.NoError(t, err)
	assert.Zero(t, key)

	order := func() *domain.TradeOrder {
		return &domain.TradeOrder{
			TradeID:  1,
			OrderKey: key + 1,
			Action:   "BUY",
			Quantity: 100,
			Status:   "Filled",
			Fills: []*domain.TradeOrderfill{
				{ExecID: "0001f4e8.01", Exchange: "ISLAND", Side: "BOT", Quantity: 60, Time: time.Now()},
				{ExecID: "0001f4e8.02", Exchange: "ISLAND", Side: "BOT", Quantity: 40, Time: time.Now()},
			},
		}
	}

	first := order()
	require.NoError(t, s.PersistTradeOrder(ctx, first))
	replay := order()
	require.NoError(t, s.PersistTradeOrder(ctx, replay))

	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, first.Fills[1].ID, replay.Fills[1].ID)

	var orders, fills int64
	require.NoError(t, s.DB().Model(&domain.TradeOrder{}).Count(&orders).Error)
	require.NoError(t, s.DB().Model(&domain.TradeOrderfill{}).Count(&fills).Error)
	assert.EqualValues(t, 1, orders)
	assert.EqualValues(t, 2, fills)

	key, err = s.FindTradeOrderMaxKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, key)
}

// go test -v --run ^TestPersistTradeOrderRetryAfterRollback$
func TestPersistTradeOrderRetryAfterRollback(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	failing := true
	err := s.DB().Callback().Create().Before("gorm:create").Register("test:fail_fill", func(db *gorm.DB) {
		if failing && db.Statement.Table == "tradeorderfill" {
			_ = db.AddError(errors.New("connection reset"))
		}
	})
	require.NoError(t, err)

	order := &domain.TradeOrder{
		TradeID:  1,
		OrderKey: 7,
		Action:   "SELL",
		Quantity: 50,
		Fills: []*domain.TradeOrderfill{
			{ExecID: "0002a1b3.01", Exchange: "ARCA", Side: "SLD", Quantity: 50, Time: time.Now()},
		},
	}

	require.Error(t, s.PersistTradeOrder(ctx, order))
	assert.Zero(t, order.ID)
	assert.Nil(t, order.Version)
	assert.Zero(t, order.Fills[0].ID)

	var orders int64
	require.NoError(t, s.DB().Model(&domain.TradeOrder{}).Count(&orders).Error)
	assert.Zero(t, orders)

	failing = false
	require.NoError(t, s.PersistTradeOrder(ctx, order))
	require.NotZero(t, order.ID)
	require.NotZero(t, order.Fills[0].ID)

	require.NoError(t, s.DB().Model(&domain.TradeOrder{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)

	got, err := s.FindTradeOrderfillByExecID(ctx, "0002a1b3.01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.TradeOrderID)
}

// go test -v --run ^TestFindMaxRuleVersionAfterExternalInsert$
func TestFindMaxRuleVersionAfterExternalInsert(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	st := &domain.Strategy{Name: "ORB"}
	require.NoError(t, s.Save(ctx, st))

	rule := &domain.Rule{StrategyID: st.ID, Body: []byte("entry: breakout")}
	require.NoError(t, s.PersistRule(ctx, rule))
	assert.Equal(t, 1, rule.RuleVersion)

	// Another writer stores a later revision directly.
	require.NoError(t, s.DB().Create(&domain.Rule{StrategyID: st.ID, RuleVersion: 10, Body: []byte("entry: pullback")}).Error)

	latest, err := s.FindMaxRuleVersion(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, latest)

	next := &domain.Rule{StrategyID: st.ID, Body: []byte("entry: retest")}
	require.NoError(t, s.PersistRule(ctx, next))
	assert.Equal(t, 11, next.RuleVersion)

	latest, err = s.FindMaxRuleVersion(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, latest)
}

// go test -v --run ^TestFindStrategies$
func TestFindStrategies(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	got, err := s.FindStrategies(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, name := range []string{"VWAP", "ORB", "Gap"} {
		require.NoError(t, s.Save(ctx, &domain.Strategy{Name: name}))
	}

	got, err = s.FindStrategies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Gap", "ORB", "VWAP"}, []string{got[0].Name, got[1].Name, got[2].Name})
}
