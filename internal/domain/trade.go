package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Trade struct {
	Aspect

	TradestrategyID uint           `gorm:"column:tradestrategy_id;not null;index"`
	Tradestrategy   *Tradestrategy `gorm:"foreignKey:TradestrategyID"`

	IsOpen        bool            `gorm:"column:is_open;not null"`
	TotalQuantity *int            `gorm:"column:total_quantity"`
	OpenQuantity  int             `gorm:"column:open_quantity;not null"`
	Side          string          `gorm:"column:side;type:varchar(3)"`
	AveragePrice  decimal.Decimal `gorm:"column:average_price;type:decimal(20,8)"`
	ProfitLoss    decimal.Decimal `gorm:"column:profit_loss;type:decimal(20,8)"`
	CreateDate    time.Time       `gorm:"column:create_date;not null"`

	TradeOrders []*TradeOrder `gorm:"foreignKey:TradeID"`
}

func (Trade) TableName() string {
	return "trade"
}

// EffectivelyOpen is true while the trade is open or a closed trade still has
// no total quantity booked.
func (t *Trade) EffectivelyOpen() bool {
	return t.IsOpen || t.TotalQuantity == nil
}

// TradeOrder is keyed by the externally assigned OrderKey.
type TradeOrder struct {
	Aspect

	TradeID uint   `gorm:"column:trade_id;not null;index"`
	Trade   *Trade `gorm:"foreignKey:TradeID"`

	OrderKey           int                 `gorm:"column:order_key;not null;uniqueIndex"`
	Action             string              `gorm:"column:action;type:varchar(6);not null"`
	OrderType          string              `gorm:"column:order_type;type:varchar(10);not null"`
	Quantity           int                 `gorm:"column:quantity;not null"`
	LimitPrice         decimal.NullDecimal `gorm:"column:limit_price;type:decimal(20,8)"`
	AuxPrice           decimal.NullDecimal `gorm:"column:aux_price;type:decimal(20,8)"`
	Status             string              `gorm:"column:status;type:varchar(20)"`
	FilledQuantity     int                 `gorm:"column:filled_quantity;not null"`
	AverageFilledPrice decimal.NullDecimal `gorm:"column:average_filled_price;type:decimal(20,8)"`
	Commission         decimal.NullDecimal `gorm:"column:commission;type:decimal(10,2)"`
	IsFilled           bool                `gorm:"column:is_filled;not null"`
	CreateDate         time.Time           `gorm:"column:create_date;not null"`

	Fills []*TradeOrderfill `gorm:"foreignKey:TradeOrderID"`
}

func (TradeOrder) TableName() string {
	return "tradeorder"
}

// TradeOrderfill is keyed by the broker's execution id.
type TradeOrderfill struct {
	Aspect

	TradeOrderID uint `gorm:"column:tradeorder_id;not null;index"`

	ExecID             string          `gorm:"column:exec_id;type:varchar(45);not null;uniqueIndex"`
	Exchange           string          `gorm:"column:exchange;type:varchar(10)"`
	Side               string          `gorm:"column:side;type:varchar(5)"`
	Price              decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	AveragePrice       decimal.Decimal `gorm:"column:average_price;type:decimal(20,8)"`
	CumulativeQuantity int             `gorm:"column:cumulative_quantity"`
	Time               time.Time       `gorm:"column:time;not null"`
}

func (TradeOrderfill) TableName() string {
	return "tradeorderfill"
}
