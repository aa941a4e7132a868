// Package main provides the menusense command: the API server plus one-shot
// scoring and optimization runs against the configured database
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "menusense",
	Short: "Menu optimization and suggestion pipeline",
	Long: `menusense rewrites menu items for a target audience, proposes new dishes from
demographic and peer signals, and scores every item for popularity and profitability.
Generated content waits in a review queue until a person approves it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./config and /etc/menusense)")

	rootCmd.AddCommand(newServeCmd(), newScoreCmd(), newOptimizeCmd(), newSuggestCmd(), newPendingCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
