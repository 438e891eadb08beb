// Command migrate manages the Postgres schema:
//
//	go run ./cmd/migrate          # apply pending migrations
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down
package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ramresume-backend/internal/shared/config"
	"ramresume-backend/internal/shared/storage/db"
	"ramresume-backend/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply embedded database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withDB(db.RunMigrations),
	}
	root.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: withDB(db.RunMigrations)},
		&cobra.Command{Use: "status", Short: "List applied and pending migrations", RunE: withDB(db.MigrationStatus)},
		&cobra.Command{Use: "down", Short: "Revert the latest migration", RunE: withDB(db.RollbackMigration)},
	)

	if err := root.ExecuteContext(ctx); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func withDB(fn func(context.Context, *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		ctx := cmd.Context()
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := fn(ctx, conn); err != nil {
			return err
		}
		telemetry.Info("migrate.done", map[string]any{"command": cmd.Name()})
		return nil
	}
}
