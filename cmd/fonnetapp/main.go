package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // CLI flag shared by every subcommand
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "fonnetapp",
		Short:         "Project tasks and provider documents service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		provisionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
