package main

import (
	"context"
	"fmt"
	"time"

	"tradecalendar/internal/domain"
	"tradecalendar/internal/ingest"
	"tradecalendar/internal/marketdata"
	"tradecalendar/pkg/bybit"

	"github.com/spf13/cobra"
)

func newCandlesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candles",
		Short: "Load and inspect OHLC bars",
	}
	cmd.AddCommand(newCandlesBackfillCmd(a), newCandlesCountCmd(a))
	return cmd
}

func newCandlesBackfillCmd(a *app) *cobra.Command {
	var (
		symbols  []string
		days     int
		interval string
		daily    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch bars from Bybit for completed sessions that have none stored",
		Example: `  tradecal candles backfill --days 3
  tradecal candles backfill --symbol BTCUSDT --symbol ETHUSDT --interval 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = a.cfg.Backfill.Days
			}
			if interval == "" {
				interval = a.cfg.Backfill.Interval
			}
			if !bybit.KlineInterval(interval).IsValid() {
				return fmt.Errorf("bad --interval %q", interval)
			}

			cal, err := a.calendar()
			if err != nil {
				return err
			}
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}

			b := &marketdata.Backfiller{
				Session:     session,
				Ingestor:    ingest.NewIngestor(session, a.log),
				Source:      a.restClient(),
				Interval:    bybit.KlineInterval(interval),
				Concurrency: a.cfg.Backfill.Concurrency,
				Timeout:     a.cfg.Bybit.REST.Timeout,
				Logger:      a.log,
			}

			run := func(ctx context.Context) error {
				contracts, err := session.FindContracts(ctx, domain.SecTypeCrypto)
				if err != nil {
					return err
				}
				contracts = filterSymbols(contracts, symbols)
				if len(contracts) == 0 {
					return fmt.Errorf("no crypto contracts to backfill, run 'tradecal contracts sync' first")
				}

				now := time.Now()
				var completed []*domain.Tradingday
				for _, day := range cal.Sessions(now.AddDate(0, 0, -days), now) {
					if !day.Close.After(now) {
						completed = append(completed, day)
					}
				}

				res, err := b.Backfill(ctx, contracts, completed)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d, skipped %d, empty %d, failed %d\n",
					res.Loaded, res.Skipped, res.Empty, res.Failed)
				return nil
			}

			if daily {
				loader := &marketdata.MidnightLoader{Name: "candles backfill", Run: run, Logger: a.log}
				loader.Start(cmd.Context())
				return nil
			}
			return run(cmd.Context())
		},
	}
	cmd.Flags().StringArrayVar(&symbols, "symbol", nil, "only these symbols, repeatable (default: every crypto contract)")
	cmd.Flags().IntVar(&days, "days", 0, "number of past days to cover (default: backfill.days)")
	cmd.Flags().StringVar(&interval, "interval", "", "bybit kline interval (default: backfill.interval)")
	cmd.Flags().BoolVar(&daily, "daily", false, "keep running and backfill again at every UTC midnight")
	return cmd
}

func filterSymbols(contracts []*domain.Contract, symbols []string) []*domain.Contract {
	if len(symbols) == 0 {
		return contracts
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []*domain.Contract
	for _, c := range contracts {
		if want[c.Symbol] {
			out = append(out, c)
		}
	}
	return out
}

func newCandlesCountCmd(a *app) *cobra.Command {
	var (
		symbol  string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count stored bars of a contract for one session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				return fmt.Errorf("missing --symbol")
			}
			cal, err := a.calendar()
			if err != nil {
				return err
			}
			date, err := time.ParseInLocation(time.DateOnly, dateStr, cal.Location())
			if err != nil {
				return fmt.Errorf("bad --date: %w", err)
			}
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			contract, err := session.FindContractByKey(ctx, domain.ContractKey{Symbol: symbol})
			if err != nil {
				return err
			}
			if contract == nil {
				return fmt.Errorf("unknown symbol %s", symbol)
			}
			want := cal.Session(date)
			day, err := session.FindTradingdayByOpenClose(ctx, want.Open, want.Close)
			if err != nil {
				return err
			}

			var n int64
			if day != nil {
				if n, err = session.FindCandleCount(ctx, day.ID, contract.ID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d bars\n", contract.Symbol, dateStr, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "contract symbol")
	cmd.Flags().StringVar(&dateStr, "date", time.Now().Format(time.DateOnly), "session date (2006-01-02)")
	return cmd
}
