package main

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/guttosm/tradebridge/config"
	"github.com/guttosm/tradebridge/internal/app"
)

const defaultMigrationDir = "db/migrations"

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Perform database migration for the symbol_mappings table",
		RunE: func(cmd *cobra.Command, args []string) error {
			action, _ := cmd.Flags().GetString("action")
			dir, _ := cmd.Flags().GetString("dir")

			if err := checkMigrateAction(action); err != nil {
				return err
			}

			db, err := app.InitPostgres(cmd.Context(), config.AppConfig)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return runMigrate(db.DB, dir, action)
		},
	}
	cmd.Flags().String("action", "up", "action up|up-by-one|down|status|reset")
	cmd.Flags().String("dir", defaultMigrationDir, "migration directory")
	return cmd
}

func checkMigrateAction(action string) error {
	switch action {
	case "up", "up-by-one", "down", "status", "reset":
		return nil
	}
	return fmt.Errorf("invalid migrate action %q", action)
}

func runMigrate(db *sql.DB, dir, action string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch action {
	case "up":
		return goose.Up(db, dir)
	case "up-by-one":
		return goose.UpByOne(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "reset":
		if err := goose.Reset(db, dir); err != nil {
			return err
		}
		return goose.Up(db, dir)
	}
	return checkMigrateAction(action)
}
