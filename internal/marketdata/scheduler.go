package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MidnightLoader runs Run once at start and then at every UTC midnight until
// the context ends.
type MidnightLoader struct {
	Name   string
	Run    func(ctx context.Context) error
	Logger *zap.Logger

	now func() time.Time
}

func (m *MidnightLoader) Start(ctx context.Context) {
	if m.now == nil {
		m.now = time.Now
	}

	// Run immediately once at startup
	m.runOnce(ctx)

	for {
		timer := time.NewTimer(m.untilMidnight())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.runOnce(ctx)
		}
	}
}

func (m *MidnightLoader) untilMidnight() time.Duration {
	now := m.now().UTC()
	next := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return next.Sub(now)
}

func (m *MidnightLoader) runOnce(ctx context.Context) {
	start := time.Now()
	if err := m.Run(ctx); err != nil {
		m.Logger.Error("scheduled run failed", zap.String("job", m.Name), zap.Error(err))
		return
	}
	m.Logger.Info("scheduled run finished", zap.String("job", m.Name), zap.Duration("took", time.Since(start)))
}
