package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SecTypeStock  = "STK"
	SecTypeFuture = "FUT"
	SecTypeCrypto = "CRYPTO"
)

// Contract is an instrument. Its business key is (SecType, Symbol, Exchange,
// Currency, expiry year+month).
type Contract struct {
	Aspect

	SecType  string     `gorm:"column:sec_type;type:varchar(10);not null;uniqueIndex:idx_contract_key"`
	Symbol   string     `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:idx_contract_key"`
	Exchange string     `gorm:"column:exchange;type:varchar(30);not null;uniqueIndex:idx_contract_key"`
	Currency string     `gorm:"column:currency;type:varchar(8);not null;uniqueIndex:idx_contract_key"`
	Expiry   *time.Time `gorm:"column:expiry;uniqueIndex:idx_contract_key"`

	PrimaryExchange string          `gorm:"column:primary_exchange;type:varchar(30)"`
	LocalSymbol     string          `gorm:"column:local_symbol;type:varchar(20)"`
	Description     string          `gorm:"column:description;type:varchar(80)"`
	TickSize        decimal.Decimal `gorm:"column:tick_size;type:decimal(10,6)"`
}

func (Contract) TableName() string {
	return "contract"
}

// ContractKey holds the fields the resolver matches a contract on. Empty strings
// and a nil Expiry are left out of the filter.
type ContractKey struct {
	SecType  string
	Symbol   string
	Exchange string
	Currency string
	Expiry   *time.Time
}

func (c *Contract) Key() ContractKey {
	return ContractKey{
		SecType:  c.SecType,
		Symbol:   c.Symbol,
		Exchange: c.Exchange,
		Currency: c.Currency,
		Expiry:   c.Expiry,
	}
}

// Equal compares keys with expiry reduced to year and month.
func (k ContractKey) Equal(o ContractKey) bool {
	if k.SecType != o.SecType || k.Symbol != o.Symbol || k.Exchange != o.Exchange || k.Currency != o.Currency {
		return false
	}
	if k.Expiry == nil || o.Expiry == nil {
		return k.Expiry == nil && o.Expiry == nil
	}
	ky, km, _ := k.Expiry.UTC().Date()
	oy, om, _ := o.Expiry.UTC().Date()
	return ky == oy && km == om
}

// ExpiryMonth returns the [first of month, first of next month) range in UTC.
func (k ContractKey) ExpiryMonth() (time.Time, time.Time, bool) {
	if k.Expiry == nil {
		return time.Time{}, time.Time{}, false
	}
	y, m, _ := k.Expiry.UTC().Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), true
}
