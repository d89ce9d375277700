package bybit

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kline is one REST bar with exact decimal prices.
type Kline struct {
	Start    time.Time
	End      time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
	Turnover decimal.Decimal
}

// ParseKlineList converts Bybit REST API kline rows to bars in ascending start
// order. Bybit returns the newest bar first. Incomplete rows are skipped.
func ParseKlineList(meta KlineIntervalMeta, raw [][]string) ([]Kline, error) {
	out := make([]Kline, 0, len(raw))

	for i, row := range raw {
		if len(row) < 7 {
			continue // skip incomplete row
		}

		startMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d start %q: %w", i, row[0], err)
		}

		var values [6]decimal.Decimal
		for j := range values {
			if values[j], err = decimal.NewFromString(row[j+1]); err != nil {
				return nil, fmt.Errorf("row %d column %d %q: %w", i, j+1, row[j+1], err)
			}
		}

		start := time.UnixMilli(startMs).UTC()
		out = append(out, Kline{
			Start:    start,
			End:      start.Add(meta.Duration()),
			Open:     values[0],
			High:     values[1],
			Low:      values[2],
			Close:    values[3],
			Volume:   values[4],
			Turnover: values[5],
		})
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Start.Before(out[b].Start) })
	return out, nil
}

// Vwap is turnover over volume, zero when nothing traded.
func (k Kline) Vwap() decimal.Decimal {
	if k.Volume.IsZero() {
		return decimal.Zero
	}
	return k.Turnover.DivRound(k.Volume, 8)
}
