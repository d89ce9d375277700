package domain

import (
	"github.com/shopspring/decimal"
)

// Tradestrategy binds a strategy to a contract and an account for one trading day.
type Tradestrategy struct {
	Aspect

	TradingdayID   uint `gorm:"column:tradingday_id;not null;uniqueIndex:idx_tradestrategy_key"`
	StrategyID     uint `gorm:"column:strategy_id;not null;uniqueIndex:idx_tradestrategy_key"`
	ContractID     uint `gorm:"column:contract_id;not null;uniqueIndex:idx_tradestrategy_key"`
	TradeAccountID uint `gorm:"column:tradeaccount_id;not null;uniqueIndex:idx_tradestrategy_key"`

	Tradingday   *Tradingday   `gorm:"foreignKey:TradingdayID"`
	Strategy     *Strategy     `gorm:"foreignKey:StrategyID"`
	Contract     *Contract     `gorm:"foreignKey:ContractID"`
	TradeAccount *TradeAccount `gorm:"foreignKey:TradeAccountID"`

	BarSize    int             `gorm:"column:bar_size;not null"`
	ChartDays  int             `gorm:"column:chart_days;not null"`
	RiskAmount decimal.Decimal `gorm:"column:risk_amount;type:decimal(10,2);not null"`
	Side       string          `gorm:"column:side;type:varchar(3)"`
	Tier       string          `gorm:"column:tier;type:varchar(1)"`
	Status     string          `gorm:"column:status;type:varchar(20)"`
	Trade      bool            `gorm:"column:trade;not null"`

	Trades     []*Trade     `gorm:"foreignKey:TradestrategyID"`
	CodeValues []*CodeValue `gorm:"foreignKey:TradestrategyID"`

	Dirty bool `gorm:"-"`
}

func (Tradestrategy) TableName() string {
	return "tradestrategy"
}

// HasTrades reports whether any trade has been executed for this row.
func (ts *Tradestrategy) HasTrades() bool {
	return len(ts.Trades) > 0
}

// OpenTrade returns the first trade that is still effectively open.
func (ts *Tradestrategy) OpenTrade() *Trade {
	for _, t := range ts.Trades {
		if t.EffectivelyOpen() {
			return t
		}
	}
	return nil
}

// SameKey compares business keys: day session, strategy name, contract key and
// account number. Surrogate ids are ignored.
func (ts *Tradestrategy) SameKey(other *Tradestrategy) bool {
	if ts == nil || other == nil {
		return false
	}
	if !ts.Tradingday.SameSession(other.Tradingday) {
		return false
	}
	if ts.Strategy == nil || other.Strategy == nil || ts.Strategy.Name != other.Strategy.Name {
		return false
	}
	if ts.Contract == nil || other.Contract == nil || !ts.Contract.Key().Equal(other.Contract.Key()) {
		return false
	}
	if ts.TradeAccount == nil || other.TradeAccount == nil {
		return false
	}
	return ts.TradeAccount.AccountNumber == other.TradeAccount.AccountNumber
}

// Describe returns "symbol/strategy/account" for log lines and errors.
func (ts *Tradestrategy) Describe() string {
	symbol, strategy, account := "?", "?", "?"
	if ts.Contract != nil {
		symbol = ts.Contract.Symbol
	}
	if ts.Strategy != nil {
		strategy = ts.Strategy.Name
	}
	if ts.TradeAccount != nil {
		account = ts.TradeAccount.AccountNumber
	}
	return symbol + "/" + strategy + "/" + account
}
