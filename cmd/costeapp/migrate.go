package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"costeapp/internal/backend"
	"costeapp/internal/storage"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch backend.BackendType(e.cfg.DataBackend) {
			case backend.SQLiteBackend:
				if err := storage.RunSQLiteMigrations(e.cfg.SQLiteDBPath); err != nil {
					return fmt.Errorf("migrate sqlite: %w", err)
				}
			case backend.PostgresBackend:
				if err := storage.RunPostgresMigrations(e.cfg.DatabaseURL); err != nil {
					return fmt.Errorf("migrate postgres: %w", err)
				}
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Backend %q has no schema to migrate.\n", e.cfg.DataBackend)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s).\n", e.cfg.DataBackend)
			return nil
		},
	}
}
