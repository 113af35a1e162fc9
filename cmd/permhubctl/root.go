package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "permhubctl",
	Short: "Administer the permission-hub service",
	Long: `permhubctl runs and administers the permission-hub service, which keeps
fine-grained data-access rules in sync with the Ranger policy authority.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
