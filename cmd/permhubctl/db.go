package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dbCmd groups the schema management subcommands.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the intent database",
	Long:  `Manage the intent database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: 'db' requires a subcommand (migrate, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
