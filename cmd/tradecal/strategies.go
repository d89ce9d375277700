package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStrategiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Inspect stored strategies",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List strategies with their latest rule version",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			strategies, err := session.FindStrategies(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCLASS\tRULE")
			for _, st := range strategies {
				rule, err := session.FindMaxRuleVersion(cmd.Context(), st.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", st.ID, st.Name, st.ClassName, rule)
			}
			return tw.Flush()
		},
	})
	return cmd
}
