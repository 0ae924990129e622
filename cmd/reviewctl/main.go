package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ethics-review-be/internal/bootstrap"
	"ethics-review-be/internal/config"
	"ethics-review-be/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:           "reviewctl",
	Short:         "Run ethics reviews and maintain the assistant registry from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(syncCmd, classifyCmd, reviewCmd, purgeAgentsCmd, eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// openContainer wires the same services the REST server uses.
func openContainer(ctx context.Context) (*bootstrap.Container, error) {
	cfg := config.Load()

	db, err := database.Open(database.Options{
		DSN:        cfg.Database.Connection,
		SQLitePath: cfg.Database.SQLitePath,
		Quiet:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating registry: %w", err)
	}
	return bootstrap.NewContainer(ctx, db, cfg)
}
