package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsdna-backend/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			log.Error("server init failed", "error", err)
			return err
		}
		defer a.Close()

		if err := a.Run(ctx); err != nil {
			log.Error("server stopped with error", "error", err)
			return err
		}
		log.Info("server stopped")
		return nil
	},
}
