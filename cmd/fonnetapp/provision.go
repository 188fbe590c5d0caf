package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/telemetry"
)

type provisionResult struct {
	ProviderID string                 `json:"provider_id"`
	Folders    *model.ProviderFolders `json:"folders,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// provisionCmd implements 'fonnetapp provision [provider-id...]'.
func provisionCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "provision [provider-id...]",
		Short: "Create the document folders of providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass provider ids or --all")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := telemetry.NewLocalLogger(os.Stderr, cfg.Telemetry.ServiceName, cfg.Telemetry.Environment)
			ctx := cmd.Context()

			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			svcs, err := newServices(ctx, cfg, db, logger)
			if err != nil {
				return err
			}

			ids := args
			if all {
				providers, err := svcs.providers.ListProviders(ctx)
				if err != nil {
					return err
				}
				ids = make([]string, 0, len(providers))
				for _, p := range providers {
					ids = append(ids, p.ID)
				}
			}

			results := make([]provisionResult, 0, len(ids))
			failed := 0
			for _, id := range ids {
				folders, err := svcs.providers.ProvisionFolders(ctx, id)
				if err != nil {
					failed++
					logger.Error("provisioning failed", slog.String("provider_id", id), slog.Any("error", err))
					results = append(results, provisionResult{ProviderID: id, Error: err.Error()})
					continue
				}
				results = append(results, provisionResult{ProviderID: id, Folders: folders})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
			if failed > 0 {
				return errors.New("some providers could not be provisioned")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Provision every registered provider")
	return cmd
}
