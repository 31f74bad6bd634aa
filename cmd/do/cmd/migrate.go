package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/yaqa/yaqa/internal/config"
	"github.com/yaqa/yaqa/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(cfg *config.Config, database *sqlx.DB) error {
					return db.RunMigrations(database.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(cfg *config.Config, database *sqlx.DB) error {
					return db.MigrateDown(database.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(cfg *config.Config, database *sqlx.DB) error {
					version, err := db.MigrationVersion(database.DB, cfg.DBDriver)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s schema version: %d\n", cfg.DBDriver, version)
					return nil
				})
			},
		},
	)

	return cmd
}

// withDB opens the configured database without migrating it.
func withDB(fn func(cfg *config.Config, database *sqlx.DB) error) error {
	cfg := config.Load()

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	return fn(cfg, database)
}
