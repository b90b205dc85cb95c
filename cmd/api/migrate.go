package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"accounts-api/internal/config"
	"accounts-api/internal/db"
)

// newMigrateCmd agrupa los subcomandos de migración de Postgres.
func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, db.Migrate)
		},
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, db.MigrationStatus)
		},
	}

	migrateCmd.AddCommand(upCmd, statusCmd)
	return migrateCmd
}

func withPostgres(cmd *cobra.Command, run func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return fmt.Errorf("migrations require store driver %q, got %q", config.StoreDriverPostgres, cfg.StoreDriver)
	}

	pool, err := db.NewPool(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	return run(cmd.Context(), pool)
}
