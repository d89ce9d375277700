package bybit

import (
	"encoding/json"
	"fmt"
)

// BybitResponse represents a generic response from Bybit's V5 REST API.
type BybitResponse struct {
	RetCode    int                    `json:"retCode"` // 0 means success
	RetMsg     string                 `json:"retMsg"`
	Result     json.RawMessage        `json:"result"` // decoded per endpoint
	RetExtInfo map[string]interface{} `json:"retExtInfo"`
	Time       int64                  `json:"time"` // server time, ms
}

// Err turns a non-zero retCode into an error.
func (r *BybitResponse) Err() error {
	if r.RetCode == 0 {
		return nil
	}
	return fmt.Errorf("bybit retCode %d: %s", r.RetCode, r.RetMsg)
}

type InstrumentListResponse struct {
	Category       string       `json:"category"`
	NextPageCursor string       `json:"nextPageCursor"`
	List           []Instrument `json:"list"`
}

type Instrument struct {
	Symbol       string `json:"symbol"`    // e.g., "BTCUSDT"
	BaseCoin     string `json:"baseCoin"`  // e.g., "BTC"
	QuoteCoin    string `json:"quoteCoin"` // e.g., "USDT"
	SettleCoin   string `json:"settleCoin"`
	Status       string `json:"status"`       // "Trading"
	ContractType string `json:"contractType"` // "LinearPerpetual", "LinearFutures"
	DeliveryTime string `json:"deliveryTime"` // ms, "0" for perpetuals
	PriceFilter  struct {
		TickSize string `json:"tickSize"`
	} `json:"priceFilter"`
}

type KlinesResponse struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}
