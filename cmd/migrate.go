package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dubber/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Apply database migrations",
	Long:        `Applies the embedded goose migrations for the configured database driver.`,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if cfg.Database.Driver == "memory" {
			log.Info("Memory store has no schema, nothing to migrate")
			return nil
		}
		if err := migrate.Run(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
