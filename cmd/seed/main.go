package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the shop auth database",
	Long: `seed loads fixture data into the shop auth database.

Available commands:
  users    Import accounts from an XLSX sheet through the normal signup flow`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newUsersCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
