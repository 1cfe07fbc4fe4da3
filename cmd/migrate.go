package cmd

import (
	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/database"
	"example.com/fieldwork/services/workorders/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the database schema and seed the fixed role vocabulary`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	if err := models.SetupModels(db); err != nil {
		return err
	}

	if err := models.SeedRoles(db); err != nil {
		return err
	}

	log.Info().Msg("Migrations complete")
	return nil
}
