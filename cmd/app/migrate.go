package main

import (
	"errors"

	"github.com/spf13/cobra"

	"edu-tutor/internal/config"
	pg "edu-tutor/internal/infra/db/postgres"
	"edu-tutor/internal/infra/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the Postgres schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(cfgPath, devMode)
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("migrate needs database.url (or DATABASE_URL)")
		}
		logger := logging.New(cfg.Log, cfg.Runtime.Dev)

		pool, err := pg.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		logger.Info().Msg("schema is up to date")
		return nil
	},
}
