// Command pizzactl is the operator's view of the store: it lists and shows
// menu items, users, and orders, and runs the failed-order audit on demand.
//
// It reads the same environment as the server (STORE_DRIVER, DATA_DIR,
// DB_PATH) and never writes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/cheesy-delights/internal/config"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every subcommand runs against. It is opened lazily in
// PersistentPreRunE so `pizzactl --help` works without a store.
type app struct {
	cfg    config.Config
	store  repository.Store
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pizzactl",
		Short:         "Inspect the Cheesy Delights store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := server.OpenStore(cfg.Store)
			if err != nil {
				return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
			}
			a.cfg = cfg
			a.store = store
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store != nil {
				return a.store.Close()
			}
			return nil
		},
	}

	root.AddCommand(newMenuCmd(a))
	root.AddCommand(newUsersCmd(a))
	root.AddCommand(newOrdersCmd(a))
	root.AddCommand(newAuditCmd(a))
	return root
}
