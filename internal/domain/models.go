package domain

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Tradingday{},
		&Contract{},
		&Strategy{},
		&Rule{},
		&Portfolio{},
		&TradeAccount{},
		&PortfolioAccount{},
		&Tradestrategy{},
		&Trade{},
		&TradeOrder{},
		&TradeOrderfill{},
		&CodeType{},
		&CodeAttribute{},
		&CodeValue{},
		&Candle{},
	}
}
