package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockboard",
	Short: "Stockboard - trading calendar and holiday data backend",
	Long: `Stockboard backend CLI

Serves the trading-day resolution API behind the frontend date picker:
authoritative non-trading days per month, trading-status checks, and
the latest trading date.

Usage:
  go run ./cmd/stockboard [command]

Examples:
  go run ./cmd/stockboard api
  go run ./cmd/stockboard sync
  go run ./cmd/stockboard calendar check 2024-01-01
  go run ./cmd/stockboard calendar next 2024-01-05`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
