package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/reconcile"
	"tradecalendar/internal/store"
	"tradecalendar/internal/store/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T) (*reconcile.Engine, *store.Session) {
	t.Helper()
	s := storetest.NewSession(t, zaptest.NewLogger(t))
	return reconcile.NewEngine(s, nil), s
}

func count[T any](t *testing.T, s *store.Session) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(new(T)).Count(&n).Error)
	return n
}

func markDirty(day *domain.Tradingday) {
	day.Dirty = true
	for _, ts := range day.Tradestrategies {
		ts.Dirty = true
	}
}

// go test -v --run ^TestPersistIsIdempotent$
func TestPersistIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("MSFT")))

	require.NoError(t, engine.Persist(ctx, day))
	require.NotZero(t, day.ID)
	ids := []uint{day.Tradestrategies[0].ID, day.Tradestrategies[1].ID}
	assert.False(t, day.Dirty)
	assert.False(t, day.Tradestrategies[0].Dirty)

	markDirty(day)
	require.NoError(t, engine.Persist(ctx, day))
	assert.Equal(t, ids, []uint{day.Tradestrategies[0].ID, day.Tradestrategies[1].ID})

	// A freshly imported copy with no ids resolves to the same rows.
	again := storetest.Day(2024, time.March, 1)
	again.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	again.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("MSFT")))
	require.NoError(t, engine.Persist(ctx, again))
	assert.Equal(t, day.ID, again.ID)
	assert.Equal(t, ids, []uint{again.Tradestrategies[0].ID, again.Tradestrategies[1].ID})

	assert.EqualValues(t, 1, count[domain.Tradingday](t, s))
	assert.EqualValues(t, 2, count[domain.Tradestrategy](t, s))
	assert.EqualValues(t, 2, count[domain.Contract](t, s))
	assert.EqualValues(t, 1, count[domain.Strategy](t, s))
	assert.EqualValues(t, 1, count[domain.TradeAccount](t, s))
}

// go test -v --run ^TestPersistSharesResolvedParents$
func TestPersistSharesResolvedParents(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	mon := storetest.Day(2024, time.March, 4)
	mon.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Future("ES", time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, engine.Persist(ctx, mon))

	// Same contract month with a different expiry day.
	tue := storetest.Day(2024, time.March, 5)
	tue.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Future("ES", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, engine.Persist(ctx, tue))

	assert.EqualValues(t, 2, count[domain.Tradingday](t, s))
	assert.EqualValues(t, 2, count[domain.Tradestrategy](t, s))
	assert.EqualValues(t, 1, count[domain.Contract](t, s))
	assert.Equal(t, mon.Tradestrategies[0].ContractID, tue.Tradestrategies[0].ContractID)
}

// go test -v --run ^TestPersistRemovesMissingTradestrategy$
func TestPersistRemovesMissingTradestrategy(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("MSFT")))
	require.NoError(t, engine.Persist(ctx, day))

	dropped := day.Tradestrategies[1]
	require.NoError(t, s.Save(ctx, &domain.CodeValue{CodeAttributeID: 1, TradestrategyID: &dropped.ID, Value: "5"}))

	day.Tradestrategies = day.Tradestrategies[:1]
	require.NoError(t, engine.Persist(ctx, day))

	gone, err := store.FindByID[domain.Tradestrategy](ctx, s, dropped.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.EqualValues(t, 1, count[domain.Tradestrategy](t, s))
	assert.EqualValues(t, 0, count[domain.CodeValue](t, s))
}

// go test -v --run ^TestPersistKeepsTradedTradestrategy$
func TestPersistKeepsTradedTradestrategy(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("MSFT")))
	require.NoError(t, engine.Persist(ctx, day))

	traded := day.Tradestrategies[1]
	trade := &domain.Trade{TradestrategyID: traded.ID, IsOpen: true, Side: "BOT", CreateDate: time.Now()}
	require.NoError(t, s.Save(ctx, trade))

	// Drop the traded row and add a new one in the same edit.
	added := storetest.Tradestrategy("ORB", "DU100", storetest.Stock("NVDA"))
	day.Tradestrategies = day.Tradestrategies[:1]
	day.AddTradestrategy(added)

	err := engine.Persist(ctx, day)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.ErrConflict))

	var conflict *reconcile.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "MSFT", conflict.Contract)
	assert.Equal(t, "ORB", conflict.Strategy)
	assert.Equal(t, "DU100", conflict.Account)
	assert.True(t, conflict.Open.Equal(day.Open))

	kept, err := store.FindByID[domain.Tradestrategy](ctx, s, traded.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	// The new row was committed before the conflict.
	require.NotZero(t, added.ID)
	assert.EqualValues(t, 3, count[domain.Tradestrategy](t, s))

	// Retrying with the traded row back in place succeeds.
	traded.Trades = []*domain.Trade{trade}
	day.AddTradestrategy(traded)
	require.NoError(t, engine.Persist(ctx, day))
	assert.EqualValues(t, 3, count[domain.Tradestrategy](t, s))
}

// go test -v --run ^TestPersistReimportLeavesTradedRowUnchanged$
func TestPersistReimportLeavesTradedRowUnchanged(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	require.NoError(t, engine.Persist(ctx, day))
	stored := day.Tradestrategies[0]

	trade := &domain.Trade{TradestrategyID: stored.ID, IsOpen: true, Side: "BOT", CreateDate: time.Now()}
	require.NoError(t, s.Save(ctx, trade))

	// A fresh import of the same file, edited after the trade went in.
	again := storetest.Day(2024, time.March, 1)
	edited := storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL"))
	edited.RiskAmount = decimal.NewFromInt(999)
	again.AddTradestrategy(edited)

	require.NoError(t, engine.Persist(ctx, again))
	assert.Equal(t, stored.ID, edited.ID)
	assert.False(t, edited.Dirty)

	got, err := store.FindByID[domain.Tradestrategy](ctx, s, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.NewFromInt(100).Equal(got.RiskAmount), "risk=%s", got.RiskAmount)
	assert.Equal(t, stored.Version, got.Version)

	// The known id path behaves the same.
	markDirty(day)
	stored.RiskAmount = decimal.NewFromInt(500)
	require.NoError(t, engine.Persist(ctx, day))

	got, err = store.FindByID[domain.Tradestrategy](ctx, s, stored.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(got.RiskAmount), "risk=%s", got.RiskAmount)
	assert.EqualValues(t, 1, count[domain.Tradestrategy](t, s))
	assert.EqualValues(t, 1, count[domain.Trade](t, s))
}

// go test -v --run ^TestPersistRejectsMismatchedID$
func TestPersistRejectsMismatchedID(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	require.NoError(t, engine.Persist(ctx, day))
	storedID := day.Tradestrategies[0].ID

	other := storetest.Day(2024, time.March, 1)
	ts := storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL"))
	ts.ID = storedID + 100
	ts.Dirty = false
	other.AddTradestrategy(ts)

	err := engine.Persist(ctx, other)
	var conflict *reconcile.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "AAPL", conflict.Contract)

	kept, err := store.FindByID[domain.Tradestrategy](ctx, s, storedID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

// go test -v --run ^TestPersistGapFillsMarketFields$
func TestPersistGapFillsMarketFields(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	bull, bear, up := "BULL", "BEAR", "UP"

	day := storetest.Day(2024, time.March, 1)
	day.MarketBias = &bull
	require.NoError(t, engine.Persist(ctx, day))

	incoming := storetest.Day(2024, time.March, 1)
	incoming.MarketBias = &bear
	incoming.MarketBar = &up
	incoming.MarketGap = decimal.NewNullDecimal(decimal.RequireFromString("-0.75"))
	require.NoError(t, engine.Persist(ctx, incoming))

	stored, err := store.FindByID[domain.Tradingday](ctx, s, day.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "BULL", *stored.MarketBias)
	assert.Equal(t, "UP", *stored.MarketBar)
	assert.True(t, stored.MarketGap.Decimal.Equal(decimal.RequireFromString("-0.75")))

	assert.Equal(t, day.ID, incoming.ID)
	assert.Equal(t, "BULL", *incoming.MarketBias)
}

// go test -v --run ^TestPersistResolvesDeletedDayID$
func TestPersistResolvesDeletedDayID(t *testing.T) {
	ctx := context.Background()
	engine, s := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	day.ID = 4242
	day.AddTradestrategy(storetest.Tradestrategy("ORB", "DU100", storetest.Stock("AAPL")))
	require.NoError(t, engine.Persist(ctx, day))

	assert.NotEqual(t, uint(4242), day.ID)
	assert.Equal(t, day.ID, day.Tradestrategies[0].TradingdayID)
	assert.EqualValues(t, 1, count[domain.Tradingday](t, s))
}

// go test -v --run ^TestPersistStaleDayVersion$
func TestPersistStaleDayVersion(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	day := storetest.Day(2024, time.March, 1)
	require.NoError(t, engine.Persist(ctx, day))

	note := "first"
	day.Note = &note
	require.NoError(t, engine.Persist(ctx, day))
	require.NotNil(t, day.Version)

	// An editor holding the previous version loses.
	stale := storetest.Day(2024, time.March, 1)
	stale.ID = day.ID
	old := *day.Version - 1
	stale.Version = &old
	other := "second"
	stale.Note = &other

	err := engine.Persist(ctx, stale)
	assert.ErrorIs(t, err, store.ErrStaleVersion)
}
