package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/ingest"
	"tradecalendar/internal/store"
	"tradecalendar/pkg/bybit"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// KlineSource returns the bars of a symbol, oldest first.
type KlineSource interface {
	GetKlines(ctx context.Context, symbol string, interval bybit.KlineInterval, start, end time.Time) ([]bybit.Kline, error)
}

type Backfiller struct {
	Session     *store.Session
	Ingestor    *ingest.Ingestor
	Source      KlineSource
	Interval    bybit.KlineInterval
	Concurrency int
	Timeout     time.Duration // per REST call
	Logger      *zap.Logger
}

// BackfillResult counts (contract, day) pairs by outcome.
type BackfillResult struct {
	Loaded  int
	Skipped int
	Empty   int
	Failed  int
}

func (r *BackfillResult) add(o BackfillResult) {
	r.Loaded += o.Loaded
	r.Skipped += o.Skipped
	r.Empty += o.Empty
	r.Failed += o.Failed
}

// Backfill loads bars for every contract and day that has none stored yet.
// Fetches run concurrently; writes are serialised by the ingestor. A failing
// pair is logged and counted, the rest carry on.
func (b *Backfiller) Backfill(ctx context.Context, contracts []*domain.Contract, days []*domain.Tradingday) (BackfillResult, error) {
	meta, err := bybit.ParseKlineInterval(string(b.Interval))
	if err != nil {
		return BackfillResult{}, err
	}

	limit := b.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var (
		mu    sync.Mutex
		total BackfillResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, contract := range contracts {
		g.Go(func() error {
			res := b.backfillContract(gctx, contract, days, meta)
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return total, fmt.Errorf("backfill interrupted: %w", err)
	}

	b.Logger.Info("backfill finished",
		zap.Int("contracts", len(contracts)),
		zap.Int("days", len(days)),
		zap.Int("loaded", total.Loaded),
		zap.Int("skipped", total.Skipped),
		zap.Int("empty", total.Empty),
		zap.Int("failed", total.Failed),
	)
	return total, nil
}

func (b *Backfiller) backfillContract(ctx context.Context, contract *domain.Contract, days []*domain.Tradingday, meta bybit.KlineIntervalMeta) BackfillResult {
	var res BackfillResult
	log := b.Logger.With(zap.String("symbol", contract.Symbol))

	for _, template := range days {
		if ctx.Err() != nil {
			return res
		}
		day := domain.NewTradingday(template.Open, template.Close)

		has, err := b.hasBars(ctx, contract, day)
		if err != nil {
			log.Warn("failed to count stored bars", zap.Time("open", day.Open), zap.Error(err))
			res.Failed++
			continue
		}
		if has {
			res.Skipped++
			continue
		}

		n, err := b.loadDay(ctx, contract, day, meta)
		switch {
		case err != nil:
			log.Warn("failed to backfill day", zap.Time("open", day.Open), zap.Error(err))
			res.Failed++
		case n == 0:
			res.Empty++
		default:
			log.Debug("day backfilled", zap.Time("open", day.Open), zap.Int("candles", n))
			res.Loaded++
		}
	}
	return res
}

func (b *Backfiller) hasBars(ctx context.Context, contract *domain.Contract, day *domain.Tradingday) (bool, error) {
	stored, err := b.Session.FindTradingdayByOpenClose(ctx, day.Open, day.Close)
	if err != nil || stored == nil {
		return false, err
	}
	day.ID = stored.ID
	n, err := b.Session.FindCandleCount(ctx, stored.ID, contract.ID)
	return n > 0, err
}

func (b *Backfiller) loadDay(ctx context.Context, contract *domain.Contract, day *domain.Tradingday, meta bybit.KlineIntervalMeta) (int, error) {
	fetchCtx := ctx
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	// The end bound is inclusive on Bybit; the last bar must start before close.
	klines, err := b.Source.GetKlines(fetchCtx, contract.Symbol, b.Interval, day.Open, day.Close.Add(-time.Millisecond))
	if err != nil {
		return 0, err
	}

	candles := make([]*domain.Candle, 0, len(klines))
	for _, k := range klines {
		if k.Start.Before(day.Open) || !k.Start.Before(day.Close) {
			continue
		}
		candles = append(candles, &domain.Candle{
			Tradingday:  day,
			StartPeriod: k.Start,
			EndPeriod:   k.End,
			Open:        k.Open,
			High:        k.High,
			Low:         k.Low,
			Close:       k.Close,
			Volume:      k.Volume,
			Vwap:        k.Vwap(),
		})
	}
	if len(candles) == 0 {
		return 0, nil
	}

	err = b.Ingestor.PersistSeries(ctx, ingest.Series{
		Contract: contract,
		BarSize:  meta.Seconds,
		Candles:  candles,
	})
	return len(candles), err
}
