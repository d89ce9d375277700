package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/ingest"
	"tradecalendar/internal/store"
	"tradecalendar/internal/store/storetest"
	"tradecalendar/pkg/bybit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeInstruments struct {
	list []bybit.Instrument
	err  error
}

func (f *fakeInstruments) GetUSDTAltcoinSymbols(context.Context) ([]bybit.Instrument, error) {
	return f.list, f.err
}

type fakeKlines struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeKlines) GetKlines(_ context.Context, symbol string, interval bybit.KlineInterval, start, end time.Time) ([]bybit.Kline, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if symbol == "DEADUSDT" {
		return nil, errors.New("symbol delisted")
	}
	meta, err := bybit.ParseKlineInterval(string(interval))
	if err != nil {
		return nil, err
	}
	var out []bybit.Kline
	for t := start; !t.After(end); t = t.Add(meta.Duration()) {
		out = append(out, bybit.Kline{
			Start:    t,
			End:      t.Add(meta.Duration()),
			Open:     decimal.NewFromInt(10),
			High:     decimal.NewFromInt(11),
			Low:      decimal.NewFromInt(9),
			Close:    decimal.NewFromInt(10),
			Volume:   decimal.NewFromInt(2),
			Turnover: decimal.NewFromInt(20),
		})
	}
	return out, nil
}

func instrument(symbol, base string) bybit.Instrument {
	inst := bybit.Instrument{Symbol: symbol, BaseCoin: base, QuoteCoin: "USDT", Status: "Trading", ContractType: "LinearPerpetual"}
	inst.PriceFilter.TickSize = "0.01"
	return inst
}

// go test -v --run ^TestSyncContracts$
func TestSyncContracts(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	s := storetest.NewSession(t, logger)

	require.NoError(t, s.Save(ctx, ContractFor(instrument("BTCUSDT", "BTC"))))

	syncer := &ContractSync{
		Session: s,
		Loader: &SymbolLoader{
			Source: &fakeInstruments{list: []bybit.Instrument{instrument("BTCUSDT", "BTC"), instrument("ETHUSDT", "ETH")}},
			Logger: logger,
		},
		Logger: logger,
	}

	res, err := syncer.SyncContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Seen: 2, Inserted: 1}, res)

	res, err = syncer.SyncContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Seen: 2, Inserted: 0}, res)

	eth, err := s.FindContractByKey(ctx, domain.ContractKey{SecType: domain.SecTypeCrypto, Symbol: "ETHUSDT", Exchange: Exchange})
	require.NoError(t, err)
	require.NotNil(t, eth)
	assert.Equal(t, "USDT", eth.Currency)
	assert.True(t, eth.TickSize.Equal(decimal.RequireFromString("0.01")))
}

// go test -v --run ^TestSyncContractsLoadError$
func TestSyncContractsLoadError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	syncer := &ContractSync{
		Session: storetest.NewSession(t, logger),
		Loader:  &SymbolLoader{Source: &fakeInstruments{err: errors.New("503")}, Logger: logger},
		Logger:  logger,
	}

	_, err := syncer.SyncContracts(context.Background())
	assert.Error(t, err)
}

func newBackfiller(t *testing.T, source KlineSource) (*Backfiller, *store.Session) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := storetest.NewSession(t, logger)
	return &Backfiller{
		Session:     s,
		Ingestor:    ingest.NewIngestor(s, logger),
		Source:      source,
		Interval:    bybit.Interval60Min,
		Concurrency: 2,
		Logger:      logger,
	}, s
}

// go test -v --run ^TestBackfill$
func TestBackfill(t *testing.T) {
	ctx := context.Background()
	source := &fakeKlines{}
	b, s := newBackfiller(t, source)

	var contracts []*domain.Contract
	for _, sym := range []string{"BTCUSDT", "ETHUSDT", "DEADUSDT"} {
		c := ContractFor(instrument(sym, sym[:3]))
		require.NoError(t, s.Save(ctx, c))
		contracts = append(contracts, c)
	}
	days := []*domain.Tradingday{storetest.Day(2024, time.March, 4), storetest.Day(2024, time.March, 5)}

	res, err := b.Backfill(ctx, contracts, days)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Loaded: 4, Failed: 2}, res)
	assert.Equal(t, 6, source.calls)

	// 09:30 to 16:00 in hourly bars.
	mon, err := s.FindTradingdayByOpenClose(ctx, days[0].Open, days[0].Close)
	require.NoError(t, err)
	require.NotNil(t, mon)
	bars, err := s.FindCandles(ctx, contracts[0].ID, mon.ID, 3600)
	require.NoError(t, err)
	require.Len(t, bars, 7)
	assert.True(t, bars[0].Vwap.Equal(decimal.NewFromInt(10)))

	// Days that already have bars are not fetched again.
	res, err = b.Backfill(ctx, contracts, days)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Skipped: 4, Failed: 2}, res)
	assert.Equal(t, 8, source.calls)
}

// go test -v --run ^TestMidnightLoader$
func TestMidnightLoader(t *testing.T) {
	m := &MidnightLoader{
		now: func() time.Time { return time.Date(2024, time.March, 1, 23, 0, 0, 0, time.UTC) },
	}
	assert.Equal(t, time.Hour, m.untilMidnight())

	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	m = &MidnightLoader{
		Name:   "test",
		Logger: zap.NewNop(),
		Run: func(context.Context) error {
			runs++
			cancel()
			return nil
		},
	}
	m.Start(ctx)
	assert.Equal(t, 1, runs)
}
