package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "workflowctl",
	Short: "Inspect and maintain a learned workflow library",
	Long: `A command-line interface for administering an on-disk learned workflow
library: the function records an execution engine accumulates over time.

The CLI provides:
- Listing and inspecting stored workflow functions
- Promoting vetted drafts to the verified tier
- Running consolidation and cleanup maintenance passes
- Reading the observability journal`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().String("dir", "", "function store directory (overrides config)")
	rootCmd.PersistentFlags().String("journal", "", "journal database path (overrides config)")

	rootCmd.AddCommand(
		commands.NewListCommand(),
		commands.NewShowCommand(),
		commands.NewPromoteCommand(),
		commands.NewStatsCommand(),
		commands.NewMaintainCommand(),
		commands.NewJournalCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
