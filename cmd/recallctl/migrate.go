package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgirmay/gaia-recall/internal/common/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the recall tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(e *env) error {
			if err := database.AutoMigrate(e.db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", e.cfg.Database.Type)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
