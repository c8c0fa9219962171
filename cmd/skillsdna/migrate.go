package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsdna-backend/internal/data/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		dbs, err := db.Open(cfg.DB, log)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer dbs.Close()

		if err := db.AutoMigrateAll(dbs.DB()); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("schema up to date", "driver", cfg.DB.Driver)
		return nil
	},
}
