package main

import (
	"errors"
	"fmt"

	pg "clinical-rx-core/internal/adapters/storage/postgres"
	"clinical-rx-core/internal/platform/config"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database.dsn is required (RXCORE_DATABASE_DSN)")
			}

			log := newLogger(cfg)
			db, err := openDB(cmd.Context(), cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema applied", nil)
			return nil
		},
	}
}
