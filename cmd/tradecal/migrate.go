package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the calendar tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openStore(cmd.Context(), true); err != nil {
				return err
			}
			a.log.Info("migration complete", zap.String("driver", a.cfg.Store.Driver))
			return nil
		},
	}
}
