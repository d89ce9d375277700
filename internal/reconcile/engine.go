package reconcile

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/store"
	"tradecalendar/pkg/id"

	"go.uber.org/zap"
)

const (
	reasonHasTrades  = "has trades and is not part of the incoming day"
	reasonIDMismatch = "incoming id does not match the stored row"
)

// Engine merges detached trading day aggregates into the store.
type Engine struct {
	session *store.Session
	logger  *zap.Logger
}

func NewEngine(session *store.Session, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = session.Logger()
	}
	return &Engine{session: session, logger: logger.Named("reconcile")}
}

// Persist reconciles day with the store.
//
// The day row and every dirty tradestrategy without trades are committed in
// their own transactions before stored rows missing from day are removed. When
// that last step fails (see ConflictError) the earlier commits stay; the
// detached day then carries the assigned ids and calling Persist again is safe.
func (e *Engine) Persist(ctx context.Context, day *domain.Tradingday) error {
	unlock := e.session.LockWriter()
	defer unlock()

	log := e.logger.With(
		zap.String("run_id", id.NewRun()),
		zap.Time("open", day.Open),
		zap.Time("close", day.Close),
	)

	if err := e.resolveDay(ctx, day); err != nil {
		log.Error("resolve tradingday failed", zap.Error(err))
		return fmt.Errorf("persist tradingday: %w", err)
	}

	for _, ts := range day.Tradestrategies {
		ts.Tradingday = day
		ts.TradingdayID = day.ID
	}

	saved := 0
	for _, ts := range day.Tradestrategies {
		// Rows with trades are owned by the execution side and never rewritten here.
		if ts.HasTrades() || !ts.Dirty {
			continue
		}
		written, err := e.saveTradestrategy(ctx, day, ts)
		if err != nil {
			log.Error("save tradestrategy failed", zap.String("tradestrategy", ts.Describe()), zap.Error(err))
			return fmt.Errorf("persist tradestrategy %s: %w", ts.Describe(), err)
		}
		if !written {
			log.Debug("stored tradestrategy has trades, left unchanged",
				zap.String("tradestrategy", ts.Describe()),
				zap.Uint("tradestrategy_id", ts.ID),
			)
			continue
		}
		saved++
	}

	removed, err := e.removeMissing(ctx, day)
	if err != nil {
		log.Warn("remove missing tradestrategies failed", zap.Int("saved", saved), zap.Error(err))
		return fmt.Errorf("persist tradingday: %w", err)
	}

	day.Dirty = false
	log.Info("tradingday persisted",
		zap.Uint("tradingday_id", day.ID),
		zap.Int("tradestrategies", len(day.Tradestrategies)),
		zap.Int("saved", saved),
		zap.Int("removed", removed),
	)
	return nil
}

// resolveDay makes sure a stored row exists for day and leaves its id and
// version on day.
func (e *Engine) resolveDay(ctx context.Context, day *domain.Tradingday) error {
	if day.ID != 0 {
		stored, err := store.FindByID[domain.Tradingday](ctx, e.session, day.ID)
		if err != nil {
			return err
		}
		if stored != nil {
			return e.mergeDay(ctx, stored, day)
		}
		// The row was deleted underneath us; match on the session instead.
		e.logger.Debug("tradingday id not found, resolving by session", zap.Uint("tradingday_id", day.ID))
		day.ID, day.Version = 0, nil
	}

	stored, err := e.session.FindTradingdayByOpenClose(ctx, day.Open, day.Close)
	if err != nil {
		return err
	}
	if stored == nil {
		return e.session.Persist(ctx, day)
	}

	if stored.FillMarketFields(day) {
		if err := e.session.Persist(ctx, stored); err != nil {
			return err
		}
	}
	adoptDay(day, stored)
	return nil
}

// mergeDay applies the editable fields of day onto stored, writing only when
// something changed. Market fields are gap-filled, never overwritten.
func (e *Engine) mergeDay(ctx context.Context, stored, day *domain.Tradingday) error {
	changed := stored.FillMarketFields(day)
	if !stored.Open.Equal(day.Open) || !stored.Close.Equal(day.Close) {
		stored.Open, stored.Close = day.Open, day.Close
		changed = true
	}
	if !sameText(stored.Note, day.Note) {
		stored.Note = day.Note
		changed = true
	}

	if changed {
		if day.Version != nil {
			stored.Version = day.Version
		}
		if err := e.session.Persist(ctx, stored); err != nil {
			return err
		}
	}
	adoptDay(day, stored)
	return nil
}

func adoptDay(day, stored *domain.Tradingday) {
	day.ID = stored.ID
	day.Version = stored.Version
	day.MarketBias = stored.MarketBias
	day.MarketBar = stored.MarketBar
	day.MarketGap = stored.MarketGap
}

// saveTradestrategy binds ts to resolved parents and upserts it in one
// transaction. A stored row that already has trades only lends ts its id and
// version; written is false then. In-memory ids are restored if the
// transaction rolls back.
func (e *Engine) saveTradestrategy(ctx context.Context, day *domain.Tradingday, ts *domain.Tradestrategy) (written bool, err error) {
	if ts.Strategy == nil || ts.Contract == nil || ts.TradeAccount == nil {
		return false, fmt.Errorf("tradestrategy %s: strategy, contract and account are required", ts.Describe())
	}

	before := ts.Aspect
	err = e.session.InTx(ctx, func(ctx context.Context) error {
		ts.Tradingday = day
		ts.TradingdayID = day.ID

		if err := e.bindStrategy(ctx, ts); err != nil {
			return err
		}
		if err := e.bindContract(ctx, ts); err != nil {
			return err
		}
		if err := e.bindAccount(ctx, ts); err != nil {
			return err
		}

		if ts.ID == 0 {
			existing, err := e.session.FindTradestrategyByKey(ctx, store.TradestrategyKey{
				TradingdayID:   ts.TradingdayID,
				StrategyID:     ts.StrategyID,
				ContractID:     ts.ContractID,
				TradeAccountID: ts.TradeAccountID,
			})
			if err != nil {
				return err
			}
			if existing != nil {
				ts.ID, ts.Version = existing.ID, existing.Version
			}
		}
		if ts.ID != 0 {
			trades, err := e.session.CountTrades(ctx, ts.ID)
			if err != nil {
				return err
			}
			if trades > 0 {
				return nil
			}
		}
		written = true
		return e.session.Save(ctx, ts)
	})
	if err != nil {
		ts.Aspect = before
		return false, err
	}

	ts.Dirty = false
	return written, nil
}

func (e *Engine) bindStrategy(ctx context.Context, ts *domain.Tradestrategy) error {
	found, err := e.session.FindStrategyByName(ctx, ts.Strategy.Name)
	if err != nil {
		return err
	}
	if found != nil {
		ts.Strategy = found
	} else {
		ts.Strategy.ID, ts.Strategy.Version = 0, nil
		if err := e.session.Save(ctx, ts.Strategy); err != nil {
			return err
		}
	}
	ts.StrategyID = ts.Strategy.ID
	return nil
}

func (e *Engine) bindContract(ctx context.Context, ts *domain.Tradestrategy) error {
	found, err := e.session.FindContractByKey(ctx, ts.Contract.Key())
	if err != nil {
		return err
	}
	if found != nil {
		ts.Contract = found
	} else {
		ts.Contract.ID, ts.Contract.Version = 0, nil
		if err := e.session.Save(ctx, ts.Contract); err != nil {
			return err
		}
	}
	ts.ContractID = ts.Contract.ID
	return nil
}

func (e *Engine) bindAccount(ctx context.Context, ts *domain.Tradestrategy) error {
	found, err := e.session.FindTradeAccountByNumber(ctx, ts.TradeAccount.AccountNumber)
	if err != nil {
		return err
	}
	if found != nil {
		ts.TradeAccount = found
	} else {
		ts.TradeAccount.ID, ts.TradeAccount.Version = 0, nil
		if err := e.session.Save(ctx, ts.TradeAccount); err != nil {
			return err
		}
	}
	ts.TradeAccountID = ts.TradeAccount.ID
	return nil
}

// removeMissing deletes stored tradestrategies of the day's open that are not in
// the incoming day. It runs in one transaction so a conflict keeps every row.
func (e *Engine) removeMissing(ctx context.Context, day *domain.Tradingday) (int, error) {
	removed := 0
	err := e.session.InTx(ctx, func(ctx context.Context) error {
		removed = 0
		stored, err := e.session.FindTradestrategiesByOpen(ctx, day.Open)
		if err != nil {
			return err
		}

		for _, row := range stored {
			if incoming := matchIncoming(day.Tradestrategies, row); incoming != nil {
				if incoming.ID != row.ID {
					return conflict(row, reasonIDMismatch)
				}
				continue
			}

			if row.HasTrades() {
				return conflict(row, reasonHasTrades)
			}
			if err := e.session.RemoveTradestrategy(ctx, row); err != nil {
				return err
			}
			e.logger.Debug("tradestrategy removed",
				zap.Uint("tradestrategy_id", row.ID),
				zap.String("tradestrategy", row.Describe()),
			)
			removed++
		}
		return nil
	})
	return removed, err
}

func matchIncoming(incoming []*domain.Tradestrategy, row *domain.Tradestrategy) *domain.Tradestrategy {
	for _, ts := range incoming {
		if ts.SameKey(row) {
			return ts
		}
	}
	return nil
}

func conflict(row *domain.Tradestrategy, reason string) *ConflictError {
	err := &ConflictError{Reason: reason}
	if row.Contract != nil {
		err.Contract = row.Contract.Symbol
	}
	if row.Strategy != nil {
		err.Strategy = row.Strategy.Name
	}
	if row.TradeAccount != nil {
		err.Account = row.TradeAccount.AccountNumber
	}
	if row.Tradingday != nil {
		err.Open = row.Tradingday.Open
	}
	return err
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
