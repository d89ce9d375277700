package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"tradecalendar/internal/dayfile"
	"tradecalendar/internal/reconcile"

	"github.com/spf13/cobra"
)

func newDayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Persist and inspect trading days",
	}
	cmd.AddCommand(newDayPersistCmd(a), newDayListCmd(a))
	return cmd
}

func newDayPersistCmd(a *app) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Merge day files into the store",
		Example: `  tradecal day persist -f days/2024-03-01.yaml
  tradecal day persist -f mon.yaml -f tue.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) == 0 {
				return fmt.Errorf("missing --file")
			}
			cal, err := a.calendar()
			if err != nil {
				return err
			}
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			engine := reconcile.NewEngine(session, a.log)

			for _, path := range files {
				day, err := dayfile.Load(path, cal)
				if err != nil {
					return err
				}
				if err := engine.Persist(cmd.Context(), day); err != nil {
					var conflict *reconcile.ConflictError
					if errors.As(err, &conflict) {
						return fmt.Errorf("%s: %w (remove the trades or keep the row in the file)", path, err)
					}
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: tradingday %d with %d tradestrategies\n",
					path, day.ID, len(day.Tradestrategies))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "day file (YAML), repeatable")
	return cmd
}

func newDayListCmd(a *app) *cobra.Command {
	var (
		fromStr string
		toStr   string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trading days opening in [from, to)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := a.calendar()
			if err != nil {
				return err
			}
			from, err := time.ParseInLocation(time.DateOnly, fromStr, cal.Location())
			if err != nil {
				return fmt.Errorf("bad --from: %w", err)
			}
			to := from.AddDate(0, 0, 1)
			if toStr != "" {
				if to, err = time.ParseInLocation(time.DateOnly, toStr, cal.Location()); err != nil {
					return fmt.Errorf("bad --to: %w", err)
				}
			}

			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			days, err := session.FindTradingdaysByDateRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "yaml" {
				for _, day := range days {
					fmt.Fprintln(out, "---")
					if err := dayfile.Encode(out, day); err != nil {
						return err
					}
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tOPEN\tCLOSE\tSTRATEGIES\tTRADED\tOPEN TRADES")
			for _, day := range days {
				traded, open := 0, 0
				for _, ts := range day.Tradestrategies {
					if ts.HasTrades() {
						traded++
					}
					if ts.OpenTrade() != nil {
						open++
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n", day.ID,
					day.Open.In(cal.Location()).Format(time.DateTime),
					day.Close.In(cal.Location()).Format(time.DateTime),
					len(day.Tradestrategies), traded, open)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", time.Now().Format(time.DateOnly), "first date (2006-01-02)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, exclusive (default: from + 1 day)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table or yaml")
	return cmd
}
