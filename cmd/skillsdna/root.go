package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsdna-backend/internal/app"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "skillsdna",
	Short:         "Skills DNA competency progress service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := app.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (defaults to ./.env when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedDemoCmd)
}

// bootstrap reads configuration after the env file has been applied.
func bootstrap() (app.Config, *logger.Logger, error) {
	cfg := app.LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
