package marketdata

import (
	"context"
	"time"

	"tradecalendar/pkg/bybit"

	"go.uber.org/zap"
)

// InstrumentSource lists the tradable USDT instruments.
type InstrumentSource interface {
	GetUSDTAltcoinSymbols(ctx context.Context) ([]bybit.Instrument, error)
}

type SymbolLoader struct {
	Source  InstrumentSource
	Timeout time.Duration
	Logger  *zap.Logger
}

// LoadSymbols fetches USDT-margined trading pairs from Bybit and streams them
// into ch. ch is closed when LoadSymbols returns.
func (l *SymbolLoader) LoadSymbols(ctx context.Context, ch chan<- bybit.Instrument) error {
	defer close(ch) // Ensure downstream consumers can exit cleanly

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	symbols, err := l.Source.GetUSDTAltcoinSymbols(ctx)
	if err != nil {
		l.Logger.Error("failed to load USDT symbols", zap.Error(err))
		return err
	}
	l.Logger.Info("loaded symbols", zap.Int("count", len(symbols)))

	for _, symbol := range symbols {
		select {
		case ch <- symbol:
		case <-ctx.Done():
			l.Logger.Warn("symbol streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	return nil
}
