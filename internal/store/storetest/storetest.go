// Package storetest opens throwaway SQLite stores and builds detached fixtures
// for tests of the store, reconcile and ingest packages.
package storetest

import (
	"path/filepath"
	"testing"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/store"
	"tradecalendar/pkg/storage"
	"tradecalendar/pkg/storage/sqlite"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewSession migrates a fresh SQLite file under t.TempDir.
func NewSession(t *testing.T, logger *zap.Logger) *store.Session {
	t.Helper()

	client, err := sqlite.InitializeAndMigrate(filepath.Join(t.TempDir(), "calendar.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return store.NewSession(client.DB, logger)
}

// Day is the 09:30-16:00 New York session of the given date.
func Day(year int, month time.Month, day int) *domain.Tradingday {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		ny = time.UTC
	}
	return domain.NewTradingday(
		time.Date(year, month, day, 9, 30, 0, 0, ny),
		time.Date(year, month, day, 16, 0, 0, 0, ny),
	)
}

func Stock(symbol string) *domain.Contract {
	return &domain.Contract{
		SecType:  domain.SecTypeStock,
		Symbol:   symbol,
		Exchange: "SMART",
		Currency: "USD",
	}
}

func Future(symbol string, expiry time.Time) *domain.Contract {
	return &domain.Contract{
		SecType:  domain.SecTypeFuture,
		Symbol:   symbol,
		Exchange: "CME",
		Currency: "USD",
		Expiry:   &expiry,
	}
}

// Tradestrategy returns a dirty row for the given parents.
func Tradestrategy(strategy, account string, contract *domain.Contract) *domain.Tradestrategy {
	return &domain.Tradestrategy{
		Strategy:     &domain.Strategy{Name: strategy, ClassName: strategy},
		Contract:     contract,
		TradeAccount: &domain.TradeAccount{AccountNumber: account, Name: account, Currency: "USD"},
		BarSize:      300,
		ChartDays:    2,
		RiskAmount:   decimal.NewFromInt(100),
		Side:         "BOT",
		Tier:         "A",
		Trade:        true,
		Dirty:        true,
	}
}

// Bars builds n consecutive bars of barSize seconds starting at from.
func Bars(day *domain.Tradingday, from time.Time, barSize, n int) []*domain.Candle {
	out := make([]*domain.Candle, 0, n)
	step := time.Duration(barSize) * time.Second
	for i := 0; i < n; i++ {
		start := from.Add(time.Duration(i) * step)
		price := decimal.NewFromInt(int64(100 + i))
		out = append(out, &domain.Candle{
			Tradingday:  day,
			BarSize:     barSize,
			StartPeriod: start,
			EndPeriod:   start.Add(step),
			Open:        price,
			High:        price.Add(decimal.NewFromInt(1)),
			Low:         price.Sub(decimal.NewFromInt(1)),
			Close:       price,
			Volume:      decimal.NewFromInt(1000),
			TradeCount:  10,
		})
	}
	return out
}
