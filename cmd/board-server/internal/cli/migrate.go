package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrate(ctx, db, cfg.Database); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Schema applied (%s)\n", cfg.Database.Driver)
		return nil
	},
}
