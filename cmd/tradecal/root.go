package main

import (
	"context"
	"fmt"

	"tradecalendar/config"
	"tradecalendar/internal/calendar"
	"tradecalendar/internal/store"
	"tradecalendar/logger"
	"tradecalendar/pkg/storage"
	"tradecalendar/pkg/storage/postgres"
	"tradecalendar/pkg/storage/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once config is loaded.
type app struct {
	configDir string

	cfg    *config.Config
	log    *zap.Logger
	client *storage.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tradecal",
		Short: "Trading calendar store: reconcile trading days and ingest candles",
		Long: `tradecal keeps a relational trading calendar: trading days with their
strategies, contracts and accounts, plus the OHLC bars recorded for them.

Day files are merged into the store without losing rows that already carry
trades. Bars are loaded from Bybit and stored per trading day.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configDir, "config", "", "directory holding config.yaml (default: ../config next to the binary)")

	cmd.AddCommand(
		newMigrateCmd(a),
		newDayCmd(a),
		newContractsCmd(a),
		newStrategiesCmd(a),
		newCandlesCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log
	return nil
}

func (a *app) close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Warn("failed to close store", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// openStore connects to the configured store. migrate also creates the
// database (postgres, when configured) and every table.
func (a *app) openStore(ctx context.Context, migrate bool) (*store.Session, error) {
	var (
		client *storage.Client
		err    error
	)
	env := a.cfg.Log.Environment

	switch a.cfg.Store.Driver {
	case "sqlite":
		if migrate {
			client, err = sqlite.InitializeAndMigrate(a.cfg.Store.SQLitePath, storage.Options{})
		} else {
			client, err = sqlite.NewClient(a.cfg.Store.SQLitePath, storage.Options{})
		}
	default:
		if migrate {
			client, err = postgres.InitializeAndMigrate(ctx, a.cfg.Postgres, env, a.cfg.Store.CreateDB)
		} else {
			client, err = postgres.NewClient(a.cfg.Postgres.DSN(env), postgres.Options(a.cfg.Postgres))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	a.client = client

	if !client.IsHealthy(ctx) {
		return nil, fmt.Errorf("%s store is not reachable", a.cfg.Store.Driver)
	}
	return store.NewSession(client.DB, a.log), nil
}

func (a *app) calendar() (*calendar.Calendar, error) {
	return calendar.New(a.cfg.Calendar)
}
