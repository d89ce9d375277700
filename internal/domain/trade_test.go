package domain_test

import (
	"testing"

	"tradecalendar/internal/domain"

	"github.com/stretchr/testify/assert"
)

// go test -v --run ^TestTradeEffectivelyOpen$
func TestTradeEffectivelyOpen(t *testing.T) {
	booked := 100

	tests := []struct {
		name  string
		trade domain.Trade
		want  bool
	}{
		{"open without quantity", domain.Trade{IsOpen: true}, true},
		{"open with quantity", domain.Trade{IsOpen: true, TotalQuantity: &booked}, true},
		{"closed without quantity", domain.Trade{IsOpen: false}, true},
		{"closed with quantity", domain.Trade{IsOpen: false, TotalQuantity: &booked}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trade.EffectivelyOpen())
		})
	}
}

// go test -v --run ^TestTradestrategyOpenTrade$
func TestTradestrategyOpenTrade(t *testing.T) {
	booked := 50
	closed := &domain.Trade{Aspect: domain.Aspect{ID: 1}, TotalQuantity: &booked}
	pending := &domain.Trade{Aspect: domain.Aspect{ID: 2}}
	live := &domain.Trade{Aspect: domain.Aspect{ID: 3}, IsOpen: true}

	ts := &domain.Tradestrategy{}
	assert.Nil(t, ts.OpenTrade())
	assert.False(t, ts.HasTrades())

	ts.Trades = []*domain.Trade{closed}
	assert.True(t, ts.HasTrades())
	assert.Nil(t, ts.OpenTrade())

	ts.Trades = []*domain.Trade{closed, pending, live}
	assert.Same(t, pending, ts.OpenTrade())

	ts.Trades = []*domain.Trade{closed, live}
	assert.Same(t, live, ts.OpenTrade())
}
