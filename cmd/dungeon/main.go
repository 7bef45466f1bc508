// Package main is the dungeon command line. It plays runs with the autopilot
// and inspects the generated content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dungeon",
	Short: "Single-player dungeon crawler simulation",
	Long: `dungeon simulates story and survival runs: heroes fight real-time battles,
climb floors, loot equipment and bank mastery points between runs.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file; empty uses defaults and DUNGEON_ environment")
	rootCmd.PersistentFlags().Uint64("seed", 0, "random seed; 0 uses the crypto source")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(battleCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(lootCmd)
	rootCmd.AddCommand(masteryCmd)
}
