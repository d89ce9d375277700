package domain

import (
	"github.com/shopspring/decimal"
)

type Portfolio struct {
	Aspect

	Name        string `gorm:"column:name;type:varchar(45);not null;uniqueIndex"`
	Alias       string `gorm:"column:alias;type:varchar(45)"`
	Description string `gorm:"column:description;type:varchar(240)"`
	IsDefault   bool   `gorm:"column:is_default;not null"`

	PortfolioAccounts []*PortfolioAccount `gorm:"foreignKey:PortfolioID"`
}

func (Portfolio) TableName() string {
	return "portfolio"
}

// TradeAccount is a broker account identified by its account number.
type TradeAccount struct {
	Aspect

	AccountNumber string `gorm:"column:account_number;type:varchar(20);not null;uniqueIndex"`
	Name          string `gorm:"column:name;type:varchar(45)"`
	AccountType   string `gorm:"column:account_type;type:varchar(20)"`
	Currency      string `gorm:"column:currency;type:varchar(3)"`
	IsDefault     bool   `gorm:"column:is_default;not null"`

	AvailableFunds decimal.Decimal `gorm:"column:available_funds;type:decimal(20,2)"`
	BuyingPower    decimal.Decimal `gorm:"column:buying_power;type:decimal(20,2)"`
	CashBalance    decimal.Decimal `gorm:"column:cash_balance;type:decimal(20,2)"`
}

func (TradeAccount) TableName() string {
	return "tradeaccount"
}

type PortfolioAccount struct {
	Aspect

	PortfolioID    uint `gorm:"column:portfolio_id;not null;uniqueIndex:idx_portfolio_account"`
	TradeAccountID uint `gorm:"column:tradeaccount_id;not null;uniqueIndex:idx_portfolio_account"`

	TradeAccount *TradeAccount `gorm:"foreignKey:TradeAccountID"`
}

func (PortfolioAccount) TableName() string {
	return "portfolioaccount"
}
