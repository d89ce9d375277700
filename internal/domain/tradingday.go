package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tradingday is one calendar session identified by its open and close timestamps.
type Tradingday struct {
	Aspect

	Open  time.Time `gorm:"column:open_date;not null;uniqueIndex:idx_tradingday_open_close"`
	Close time.Time `gorm:"column:close_date;not null;uniqueIndex:idx_tradingday_open_close"`

	// Set by import. Once present on a stored day they are only ever gap-filled.
	MarketBias *string             `gorm:"column:market_bias;type:varchar(10)"`
	MarketBar  *string             `gorm:"column:market_bar;type:varchar(10)"`
	MarketGap  decimal.NullDecimal `gorm:"column:market_gap;type:decimal(10,4)"`
	Note       *string             `gorm:"column:note;type:text"`

	Tradestrategies []*Tradestrategy `gorm:"foreignKey:TradingdayID"`

	Dirty bool `gorm:"-"`
}

// TableName overrides the default table name for GORM.
func (Tradingday) TableName() string {
	return "tradingday"
}

// NewTradingday normalises the session bounds to UTC so key lookups compare equal.
func NewTradingday(open, close time.Time) *Tradingday {
	return &Tradingday{Open: open.UTC(), Close: close.UTC()}
}

// SameSession reports whether both days describe the same (open, close) session.
func (d *Tradingday) SameSession(other *Tradingday) bool {
	if d == nil || other == nil {
		return false
	}
	return d.Open.Equal(other.Open) && d.Close.Equal(other.Close)
}

// FillMarketFields copies market bias, bar and gap from incoming only where d has
// none yet. It reports whether anything changed.
func (d *Tradingday) FillMarketFields(incoming *Tradingday) bool {
	changed := false
	if d.MarketBias == nil && incoming.MarketBias != nil {
		d.MarketBias = incoming.MarketBias
		changed = true
	}
	if d.MarketBar == nil && incoming.MarketBar != nil {
		d.MarketBar = incoming.MarketBar
		changed = true
	}
	if !d.MarketGap.Valid && incoming.MarketGap.Valid {
		d.MarketGap = incoming.MarketGap
		changed = true
	}
	return changed
}

// AddTradestrategy appends ts and binds it to the day.
func (d *Tradingday) AddTradestrategy(ts *Tradestrategy) {
	ts.Tradingday = d
	ts.TradingdayID = d.ID
	d.Tradestrategies = append(d.Tradestrategies, ts)
}
