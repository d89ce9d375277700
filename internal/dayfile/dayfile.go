// Package dayfile reads and writes trading days as YAML documents. A file read
// from disk becomes a detached aggregate with every row marked dirty, ready for
// the reconciliation engine.
package dayfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"tradecalendar/internal/calendar"
	"tradecalendar/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type File struct {
	Date            string              `yaml:"date,omitempty"` // 2006-01-02, needs a calendar
	Open            *time.Time          `yaml:"open,omitempty"`
	Close           *time.Time          `yaml:"close,omitempty"`
	MarketBias      string              `yaml:"market_bias,omitempty"`
	MarketBar       string              `yaml:"market_bar,omitempty"`
	MarketGap       string              `yaml:"market_gap,omitempty"`
	Note            string              `yaml:"note,omitempty"`
	Tradestrategies []TradestrategyFile `yaml:"tradestrategies"`
}

type TradestrategyFile struct {
	Strategy   string       `yaml:"strategy"`
	Account    string       `yaml:"account"`
	Contract   ContractFile `yaml:"contract"`
	BarSize    int          `yaml:"bar_size"`
	ChartDays  int          `yaml:"chart_days"`
	RiskAmount string       `yaml:"risk_amount"`
	Side       string       `yaml:"side,omitempty"`
	Tier       string       `yaml:"tier,omitempty"`
	Status     string       `yaml:"status,omitempty"`
	Trade      bool         `yaml:"trade"`
}

type ContractFile struct {
	SecType  string `yaml:"sec_type"`
	Symbol   string `yaml:"symbol"`
	Exchange string `yaml:"exchange"`
	Currency string `yaml:"currency"`
	Expiry   string `yaml:"expiry,omitempty"` // 2006-01 or 2006-01-02
}

// Load reads path. cal is only needed for files that give a date instead of
// open and close.
func Load(path string, cal *calendar.Calendar) (*domain.Tradingday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read day file: %w", err)
	}
	day, err := Decode(bytes.NewReader(data), cal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return day, nil
}

func Decode(r io.Reader, cal *calendar.Calendar) (*domain.Tradingday, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode day file: %w", err)
	}
	return f.Tradingday(cal)
}

// Tradingday converts f into a detached aggregate.
func (f *File) Tradingday(cal *calendar.Calendar) (*domain.Tradingday, error) {
	var day *domain.Tradingday
	switch {
	case f.Open != nil && f.Close != nil:
		if !f.Close.After(*f.Open) {
			return nil, fmt.Errorf("close %s is not after open %s", f.Close, f.Open)
		}
		day = domain.NewTradingday(*f.Open, *f.Close)
	case f.Date != "":
		if cal == nil {
			return nil, fmt.Errorf("date %s given without a calendar", f.Date)
		}
		date, err := time.ParseInLocation(time.DateOnly, f.Date, cal.Location())
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		day = cal.Session(date)
	default:
		return nil, fmt.Errorf("either open and close or date is required")
	}

	day.MarketBias = optional(f.MarketBias)
	day.MarketBar = optional(f.MarketBar)
	day.Note = optional(f.Note)
	if f.MarketGap != "" {
		gap, err := decimal.NewFromString(f.MarketGap)
		if err != nil {
			return nil, fmt.Errorf("market_gap: %w", err)
		}
		day.MarketGap = decimal.NewNullDecimal(gap)
	}
	day.Dirty = true

	for i, row := range f.Tradestrategies {
		ts, err := row.tradestrategy()
		if err != nil {
			return nil, fmt.Errorf("tradestrategies[%d]: %w", i, err)
		}
		day.AddTradestrategy(ts)
	}
	return day, nil
}

func (row TradestrategyFile) tradestrategy() (*domain.Tradestrategy, error) {
	if row.Strategy == "" || row.Account == "" || row.Contract.Symbol == "" {
		return nil, fmt.Errorf("strategy, account and contract.symbol are required")
	}

	risk := decimal.Zero
	if row.RiskAmount != "" {
		var err error
		if risk, err = decimal.NewFromString(row.RiskAmount); err != nil {
			return nil, fmt.Errorf("risk_amount: %w", err)
		}
	}

	contract, err := row.Contract.contract()
	if err != nil {
		return nil, err
	}

	return &domain.Tradestrategy{
		Strategy:     &domain.Strategy{Name: row.Strategy},
		TradeAccount: &domain.TradeAccount{AccountNumber: row.Account},
		Contract:     contract,
		BarSize:      row.BarSize,
		ChartDays:    row.ChartDays,
		RiskAmount:   risk,
		Side:         row.Side,
		Tier:         row.Tier,
		Status:       row.Status,
		Trade:        row.Trade,
		Dirty:        true,
	}, nil
}

func (c ContractFile) contract() (*domain.Contract, error) {
	out := &domain.Contract{
		SecType:  c.SecType,
		Symbol:   c.Symbol,
		Exchange: c.Exchange,
		Currency: c.Currency,
	}
	if out.SecType == "" {
		out.SecType = domain.SecTypeStock
	}
	if c.Expiry != "" {
		expiry, err := time.Parse(time.DateOnly, c.Expiry)
		if err != nil {
			if expiry, err = time.Parse("2006-01", c.Expiry); err != nil {
				return nil, fmt.Errorf("contract.expiry %q: want 2006-01 or 2006-01-02", c.Expiry)
			}
		}
		out.Expiry = &expiry
	}
	return out, nil
}

// Encode writes day, including its tradestrategies, as a day file.
func Encode(w io.Writer, day *domain.Tradingday) error {
	openAt, closeAt := day.Open.UTC(), day.Close.UTC()
	f := File{
		Open:       &openAt,
		Close:      &closeAt,
		MarketBias: deref(day.MarketBias),
		MarketBar:  deref(day.MarketBar),
		Note:       deref(day.Note),
	}
	if day.MarketGap.Valid {
		f.MarketGap = day.MarketGap.Decimal.String()
	}

	for _, ts := range day.Tradestrategies {
		row := TradestrategyFile{
			BarSize:    ts.BarSize,
			ChartDays:  ts.ChartDays,
			RiskAmount: ts.RiskAmount.String(),
			Side:       ts.Side,
			Tier:       ts.Tier,
			Status:     ts.Status,
			Trade:      ts.Trade,
		}
		if ts.Strategy != nil {
			row.Strategy = ts.Strategy.Name
		}
		if ts.TradeAccount != nil {
			row.Account = ts.TradeAccount.AccountNumber
		}
		if c := ts.Contract; c != nil {
			row.Contract = ContractFile{SecType: c.SecType, Symbol: c.Symbol, Exchange: c.Exchange, Currency: c.Currency}
			if c.Expiry != nil {
				row.Contract.Expiry = c.Expiry.UTC().Format(time.DateOnly)
			}
		}
		f.Tradestrategies = append(f.Tradestrategies, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode day file: %w", err)
	}
	return enc.Close()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
