package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fonnet/fonnetapp/internal/telemetry"
)

// migrateCmd implements 'fonnetapp migrate'.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := telemetry.NewLocalLogger(os.Stdout, cfg.Telemetry.ServiceName, cfg.Telemetry.Environment)

			db, err := openDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("schema up to date", slog.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
