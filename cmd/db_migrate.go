package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront.GO/config"
	"storefront.GO/core/logging"
	"storefront.GO/migrations"
)

var migrateDownSteps int

var dbMigrateCmd = &cobra.Command{
	Use:   "db:migrate",
	Short: "Apply schema migrations (MySQL SQL files, SQLite auto-migrate)",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.MustLogger()
		defer logger.Sync()

		db, err := config.NewDB()
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
			if err := sqlDB.PingContext(context.Background()); err != nil {
				return fmt.Errorf("database ping failed: %w", err)
			}
		}

		if migrateDownSteps > 0 {
			if err := migrations.Down(db, migrateDownSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", migrateDownSteps)
			return nil
		}
		if err := migrations.Up(db, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	dbMigrateCmd.Flags().IntVar(&migrateDownSteps, "down", 0, "Roll back this many migrations instead of applying")
	rootCmd.AddCommand(dbMigrateCmd)
}
