package main

import (
	"inkpost/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gdb, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(gdb)

		return db.Migrate(gdb)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gdb, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(gdb)

		if err := db.Migrate(gdb); err != nil {
			return err
		}
		return db.Seed(cmd.Context(), gdb)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
