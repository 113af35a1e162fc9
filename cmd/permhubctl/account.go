package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage directory accounts",
	Long:  `Manage LDAP directory accounts and their default grants.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'account' requires a subcommand (create, delete)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
