package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parlorfn",
	Short: "Parlor functions toolbox - operate the chat backend's data and moderation state",
	Long: `parlorfn bundles the operational commands for the Parlor functions
backend: reconciling moderation state after partial failures and seeding
development data.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load environment variables
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: .env file not found, using system environment variables")
		}
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
