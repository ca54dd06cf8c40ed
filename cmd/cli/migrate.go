package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
	"github.com/linkbridge/linkbridge/internal/store"
)

// MigrateCmd creates or updates the links and providers tables.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `Connects to the configured database (SQLite or Postgres) and runs GORM
automatic migrations for the 'links' and 'providers' tables.`,
	RunE: func(c *cobra.Command, args []string) error {
		// Open migrates as part of connecting.
		db, err := store.Open(cmd.Cfg.Database, cmd.Logger)
		if err != nil {
			return err
		}
		defer store.Close(db) //nolint:errcheck

		fmt.Println("Database migrations executed successfully.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
