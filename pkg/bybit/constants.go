package bybit

import (
	"fmt"
	"time"
)

// KlineInterval is the interval type used for API requests
type KlineInterval string

// KlineIntervalMeta holds the API value, a display label and the bar length.
type KlineIntervalMeta struct {
	APIValue string
	Label    string
	Seconds  int
}

// Duration is the bar length.
func (m KlineIntervalMeta) Duration() time.Duration {
	return time.Duration(m.Seconds) * time.Second
}

const (
	Interval1Min   KlineInterval = "1"
	Interval3Min   KlineInterval = "3"
	Interval5Min   KlineInterval = "5"
	Interval15Min  KlineInterval = "15"
	Interval30Min  KlineInterval = "30"
	Interval60Min  KlineInterval = "60"
	Interval120Min KlineInterval = "120"
	Interval240Min KlineInterval = "240"
	Interval360Min KlineInterval = "360"
	Interval720Min KlineInterval = "720"
	IntervalDaily  KlineInterval = "D"
	IntervalWeekly KlineInterval = "W"
)

// Monthly bars have no fixed length, so they cannot be stored as a bar size.
var validKlineIntervals = map[KlineInterval]KlineIntervalMeta{
	Interval1Min:   {APIValue: "1", Label: "1m", Seconds: 60},
	Interval3Min:   {APIValue: "3", Label: "3m", Seconds: 180},
	Interval5Min:   {APIValue: "5", Label: "5m", Seconds: 300},
	Interval15Min:  {APIValue: "15", Label: "15m", Seconds: 900},
	Interval30Min:  {APIValue: "30", Label: "30m", Seconds: 1800},
	Interval60Min:  {APIValue: "60", Label: "1h", Seconds: 3600},
	Interval120Min: {APIValue: "120", Label: "2h", Seconds: 7200},
	Interval240Min: {APIValue: "240", Label: "4h", Seconds: 14400},
	Interval360Min: {APIValue: "360", Label: "6h", Seconds: 21600},
	Interval720Min: {APIValue: "720", Label: "12h", Seconds: 43200},
	IntervalDaily:  {APIValue: "D", Label: "1d", Seconds: 86400},
	IntervalWeekly: {APIValue: "W", Label: "1w", Seconds: 604800},
}

// IsValid checks if the KlineInterval is a valid predefined interval
func (k KlineInterval) IsValid() bool {
	_, ok := validKlineIntervals[k]
	return ok
}

// ParseKlineInterval parses a string into a valid KlineIntervalMeta
func ParseKlineInterval(s string) (KlineIntervalMeta, error) {
	interval := KlineInterval(s)
	meta, ok := validKlineIntervals[interval]
	if !ok {
		return KlineIntervalMeta{}, fmt.Errorf("invalid KlineInterval: %s", s)
	}
	return meta, nil
}

// CategoryLinear is the USDT perpetual category.
const CategoryLinear = "linear"

// maxKlineLimit is the largest page the kline endpoint returns.
const maxKlineLimit = 1000
