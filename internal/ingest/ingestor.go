package ingest

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/store"
	"tradecalendar/pkg/id"

	"go.uber.org/zap"
)

// CommitInterval is the number of bars written per transaction.
const CommitInterval = 50

// Series is an ordered run of bars of one size for one contract. Every candle
// carries its (possibly detached) trading day.
type Series struct {
	Contract *domain.Contract
	BarSize  int // seconds
	Candles  []*domain.Candle
}

type Ingestor struct {
	session     *store.Session
	logger      *zap.Logger
	commitEvery int
}

func NewIngestor(session *store.Session, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = session.Logger()
	}
	return &Ingestor{
		session:     session,
		logger:      logger.Named("ingest"),
		commitEvery: CommitInterval,
	}
}

// PersistSeries replaces the stored bars of every (contract, day, bar size) the
// series touches with the series' bars.
//
// Bars are committed every CommitInterval bars and a new trading day is
// committed as soon as it is inserted. On error only the open transaction is
// rolled back; bars committed before it stay.
func (in *Ingestor) PersistSeries(ctx context.Context, series Series) error {
	if len(series.Candles) == 0 {
		return nil
	}
	if series.Contract == nil {
		return fmt.Errorf("persist series: contract is required")
	}

	unlock := in.session.LockWriter()
	defer unlock()

	log := in.logger.With(
		zap.String("run_id", id.NewRun()),
		zap.String("symbol", series.Contract.Symbol),
		zap.Int("bar_size", series.BarSize),
		zap.Int("candles", len(series.Candles)),
	)

	contract, err := store.FindByID[domain.Contract](ctx, in.session, series.Contract.ID)
	if err != nil {
		return fmt.Errorf("persist series: %w", err)
	}
	if contract == nil {
		return fmt.Errorf("persist series: contract id=%d: %w", series.Contract.ID, store.ErrNotFound)
	}

	w := &batchWriter{in: in, log: log, contract: contract, barSize: series.BarSize, seen: make(map[uint]bool)}
	if err := w.run(ctx, series.Candles); err != nil {
		log.Error("persist series failed", zap.Int("committed", w.committed), zap.Error(err))
		return fmt.Errorf("persist series %s: %w", contract.Symbol, err)
	}

	log.Info("candle series persisted",
		zap.Int("committed", w.committed),
		zap.Int64("replaced", w.replaced),
		zap.Int("days", len(w.seen)),
	)
	return nil
}

type batchWriter struct {
	in       *Ingestor
	log      *zap.Logger
	contract *domain.Contract
	barSize  int

	tx        *store.Tx
	day       *domain.Tradingday
	seen      map[uint]bool // days whose bars for this key are already replaced
	committed int
	replaced  int64
}

func (w *batchWriter) run(ctx context.Context, candles []*domain.Candle) error {
	if err := w.begin(ctx); err != nil {
		return err
	}
	defer func() { w.tx.Rollback() }()

	for i, candle := range candles {
		if candle.Tradingday == nil {
			return fmt.Errorf("candle %d starting %s has no tradingday", i+1, candle.StartPeriod)
		}
		if w.day == nil || !w.day.SameSession(candle.Tradingday) {
			if err := w.switchDay(ctx, candle.Tradingday, i); err != nil {
				return err
			}
		}

		candle.ID, candle.Version = 0, nil
		candle.BarSize = w.barSize
		candle.Contract, candle.ContractID = w.contract, w.contract.ID
		candle.Tradingday, candle.TradingdayID = w.day, w.day.ID
		if err := w.in.session.Save(w.tx.Context(), candle); err != nil {
			return fmt.Errorf("candle %d starting %s: %w", i+1, candle.StartPeriod, err)
		}

		n := i + 1
		if n%w.in.commitEvery == 0 && n < len(candles) {
			if err := w.commit(ctx, n); err != nil {
				return err
			}
		}
	}
	return w.commitBatch(len(candles))
}

// switchDay resolves day by id, then by session, inserting it when unknown.
// done is the number of bars written so far.
func (w *batchWriter) switchDay(ctx context.Context, day *domain.Tradingday, done int) error {
	txCtx := w.tx.Context()

	var resolved *domain.Tradingday
	if day.ID != 0 {
		found, err := store.FindByID[domain.Tradingday](txCtx, w.in.session, day.ID)
		if err != nil {
			return err
		}
		resolved = found
	}
	if resolved == nil {
		found, err := w.in.session.FindTradingdayByOpenClose(txCtx, day.Open, day.Close)
		if err != nil {
			return err
		}
		resolved = found
	}

	if resolved == nil {
		day.ID, day.Version = 0, nil
		if err := w.in.session.Save(txCtx, day); err != nil {
			return fmt.Errorf("insert tradingday %s: %w", day.Open, err)
		}
		if err := w.tx.Commit(); err != nil {
			return fmt.Errorf("commit tradingday %s: %w", day.Open, err)
		}
		w.committed = done
		w.log.Debug("committed new tradingday", zap.Uint("tradingday_id", day.ID), zap.Time("open", day.Open))
		if err := w.begin(ctx); err != nil {
			return err
		}
		// A new day has no stored bars to replace.
		w.seen[day.ID] = true
		w.day = day
		return nil
	}

	day.ID, day.Version = resolved.ID, resolved.Version
	if !w.seen[resolved.ID] {
		n, err := w.in.session.DeleteCandles(txCtx, w.contract.ID, resolved.ID, w.barSize)
		if err != nil {
			return err
		}
		w.replaced += n
		w.seen[resolved.ID] = true
	}
	w.day = day
	return nil
}

func (w *batchWriter) begin(ctx context.Context) error {
	tx, err := w.in.session.Begin(ctx)
	if err != nil {
		return err
	}
	w.tx = tx
	return nil
}

func (w *batchWriter) commit(ctx context.Context, n int) error {
	if err := w.commitBatch(n); err != nil {
		return err
	}
	return w.begin(ctx)
}

func (w *batchWriter) commitBatch(n int) error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("commit after candle %d: %w", n, err)
	}
	w.committed = n
	w.log.Info("committed candle batch", zap.Int("through", n))
	return nil
}
