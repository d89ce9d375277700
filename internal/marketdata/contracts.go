package marketdata

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/store"
	"tradecalendar/pkg/bybit"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Exchange is the exchange code stored on Bybit contracts.
const Exchange = "BYBIT"

// ContractSync keeps a contract row for every listed USDT instrument.
type ContractSync struct {
	Session *store.Session
	Loader  *SymbolLoader
	Logger  *zap.Logger
}

// SyncResult counts what one sync did.
type SyncResult struct {
	Seen     int
	Inserted int
}

// SyncContracts streams the listed instruments and inserts the ones the
// resolver does not know yet. Existing rows are left untouched.
func (s *ContractSync) SyncContracts(ctx context.Context) (SyncResult, error) {
	ch := make(chan bybit.Instrument, 100)
	loadErr := make(chan error, 1)
	go func() {
		loadErr <- s.Loader.LoadSymbols(ctx, ch)
	}()

	var res SyncResult
	for inst := range ch {
		res.Seen++
		inserted, err := s.ensure(ctx, inst)
		if err != nil {
			// Drain so the loader can finish.
			for range ch {
			}
			<-loadErr
			return res, err
		}
		if inserted {
			res.Inserted++
		}
	}
	if err := <-loadErr; err != nil {
		return res, fmt.Errorf("load symbols: %w", err)
	}

	s.Logger.Info("contracts synced", zap.Int("seen", res.Seen), zap.Int("inserted", res.Inserted))
	return res, nil
}

func (s *ContractSync) ensure(ctx context.Context, inst bybit.Instrument) (bool, error) {
	c := ContractFor(inst)
	found, err := s.Session.FindContractByKey(ctx, c.Key())
	if err != nil {
		return false, err
	}
	if found != nil {
		return false, nil
	}
	if err := s.Session.Persist(ctx, c); err != nil {
		return false, fmt.Errorf("insert contract %s: %w", inst.Symbol, err)
	}
	s.Logger.Debug("contract inserted", zap.String("symbol", c.Symbol), zap.Uint("contract_id", c.ID))
	return true, nil
}

// ContractFor maps an instrument to its detached contract.
func ContractFor(inst bybit.Instrument) *domain.Contract {
	c := &domain.Contract{
		SecType:     domain.SecTypeCrypto,
		Symbol:      inst.Symbol,
		Exchange:    Exchange,
		Currency:    inst.QuoteCoin,
		LocalSymbol: inst.BaseCoin,
		Description: inst.ContractType,
	}
	if tick, err := decimal.NewFromString(inst.PriceFilter.TickSize); err == nil {
		c.TickSize = tick
	}
	return c
}
