package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsdna-backend/internal/app"
	"github.com/yungbote/skillsdna-backend/internal/seed"
)

var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Load the demo taxonomy, course and user",
	Long: "Upserts the demo competency taxonomy, a course with linked modules and a demo user.\n" +
		"Safe to run repeatedly. With --with-progress it also submits a quick diagnostic for the user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")
		withProgress, _ := cmd.Flags().GetBool("with-progress")
		fixturePath, _ := cmd.Flags().GetString("fixture")

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		cfg.AutoMigrate = true

		fx, err := seed.Load(fixturePath)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		seeder := seed.NewSeeder(a.DB.DB(), log, a.Repos, a.Services.ProgressAggregate)
		res, err := seeder.Run(cmd.Context(), fx, seed.Options{UserID: userID, WithProgress: withProgress})
		if err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"user=%d course=%d competencies=%d modules=%d links_created=%d progress_saved=%d\n",
			res.UserID, res.CourseID, res.Competencies, res.Modules, res.LinksCreated, res.Saved)
		return nil
	},
}

func init() {
	seedDemoCmd.Flags().Uint("user-id", 0, "Create the demo user with this id if missing")
	seedDemoCmd.Flags().Bool("with-progress", false, "Also apply the demo quick diagnostic")
	seedDemoCmd.Flags().String("fixture", "", "Path to a fixture file (defaults to the built-in demo)")
}
