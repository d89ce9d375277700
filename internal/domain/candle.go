package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLC bar for a contract within a trading day.
type Candle struct {
	Aspect

	ContractID   uint      `gorm:"column:contract_id;not null;uniqueIndex:idx_candle_key;index:idx_candle_contract_day"`
	TradingdayID uint      `gorm:"column:tradingday_id;not null;uniqueIndex:idx_candle_key;index:idx_candle_contract_day"`
	BarSize      int       `gorm:"column:bar_size;not null;uniqueIndex:idx_candle_key"`
	StartPeriod  time.Time `gorm:"column:start_period;not null;uniqueIndex:idx_candle_key"`
	EndPeriod    time.Time `gorm:"column:end_period;not null;uniqueIndex:idx_candle_key"`

	Contract   *Contract   `gorm:"foreignKey:ContractID"`
	Tradingday *Tradingday `gorm:"foreignKey:TradingdayID"`

	Open       decimal.Decimal `gorm:"column:open_price;type:decimal(20,8);not null"`
	High       decimal.Decimal `gorm:"column:high_price;type:decimal(20,8);not null"`
	Low        decimal.Decimal `gorm:"column:low_price;type:decimal(20,8);not null"`
	Close      decimal.Decimal `gorm:"column:close_price;type:decimal(20,8);not null"`
	Volume     decimal.Decimal `gorm:"column:volume;type:decimal(28,8);not null"`
	Vwap       decimal.Decimal `gorm:"column:vwap;type:decimal(20,8)"`
	TradeCount int             `gorm:"column:trade_count"`

	LastUpdateDate time.Time `gorm:"column:last_update_date;autoUpdateTime"`
}

func (Candle) TableName() string {
	return "candle"
}
