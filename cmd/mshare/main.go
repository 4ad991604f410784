// Command mshare runs the market-share pipeline from the command line.
//
// Logs go to stderr; stdout carries command output only, so the run
// summary can be piped into other tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/marketshare/internal/config"
	"github.com/JonMunkholm/marketshare/internal/logging"
	"github.com/JonMunkholm/marketshare/internal/store"
	_ "github.com/JonMunkholm/marketshare/internal/store/postgres" // Register store drivers
	_ "github.com/JonMunkholm/marketshare/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app carries the loaded configuration to subcommands.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "mshare",
		Short:         "Unpivot market reports and compute market-share metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal outside development.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			a.cfg = cfg
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the history store",
	}
	historyCmd.AddCommand(
		newHistoryImportCmd(a),
		newHistoryExportCmd(a),
	)

	rootCmd.AddCommand(
		newSheetsCmd(),
		newUnpivotCmd(a),
		newRunCmd(a),
		historyCmd,
	)
	return rootCmd
}

// openStore opens the configured history store. required reports whether
// a missing STORE_DRIVER is an error for the caller.
func (a *app) openStore(ctx context.Context, required bool) (store.Store, error) {
	st, err := store.Open(ctx, a.cfg.Store.DriverConfig())
	if errors.Is(err, store.ErrNotConfigured) && !required {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("history store opened", "driver", a.cfg.Store.Driver)
	return st, nil
}
