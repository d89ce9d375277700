package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"tradecalendar/internal/marketdata"
	"tradecalendar/pkg/bybit"

	"github.com/spf13/cobra"
)

func newContractsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Maintain the contract table",
	}
	cmd.AddCommand(newContractsSyncCmd(a), newContractsListCmd(a))
	return cmd
}

func (a *app) restClient() *bybit.RESTClient {
	rest := a.cfg.Bybit.REST
	return bybit.NewRESTClient(rest.BaseURL, rest.Category, rest.Timeout)
}

func newContractsSyncCmd(a *app) *cobra.Command {
	var daily bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Insert a contract for every listed Bybit USDT instrument",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			syncer := &marketdata.ContractSync{
				Session: session,
				Loader: &marketdata.SymbolLoader{
					Source:  a.restClient(),
					Timeout: a.cfg.Bybit.REST.Timeout,
					Logger:  a.log,
				},
				Logger: a.log,
			}

			if daily {
				loader := &marketdata.MidnightLoader{
					Name:   "contracts sync",
					Logger: a.log,
					Run: func(ctx context.Context) error {
						_, err := syncer.SyncContracts(ctx)
						return err
					},
				}
				loader.Start(cmd.Context())
				return nil
			}

			res, err := syncer.SyncContracts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d instruments, %d new contracts\n", res.Seen, res.Inserted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&daily, "daily", false, "keep running and sync again at every UTC midnight")
	return cmd
}

func newContractsListCmd(a *app) *cobra.Command {
	var secType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			contracts, err := session.FindContracts(cmd.Context(), secType)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSYMBOL\tEXCHANGE\tCURRENCY\tEXPIRY")
			for _, c := range contracts {
				expiry := ""
				if c.Expiry != nil {
					expiry = c.Expiry.Format("2006-01")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.SecType, c.Symbol, c.Exchange, c.Currency, expiry)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&secType, "sec-type", "", "filter by security type (STK, FUT, CRYPTO)")
	return cmd
}
