package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/display"
)

func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the library's on-disk state",
		Long:  `Report per-tier record counts and on-disk sizes for the function store.`,
		Example: `  workflowctl stats --dir ./functions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}

			stats, err := store.Stats()
			if err != nil {
				return err
			}

			fmt.Print(display.FormatStoreStats(stats))
			return nil
		},
	}
}
