package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/display"
	"github.com/metahuman-os/workflow-memory/pkg/functions"
)

func NewMaintainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run a consolidation and cleanup pass",
		Long: `Run one maintenance pass over the draft tier: near-duplicate drafts are
merged into their best member and stale unused drafts are removed.

With --dry-run the pass reports what it would do without touching any
records.`,
		Example: `  # See what maintenance would do
  workflowctl maintain --dir ./functions --dry-run

  # Actually consolidate and clean up
  workflowctl maintain --dir ./functions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore(cmd)
			if err != nil {
				return err
			}

			maintainer := functions.NewMaintainer(store, cfg)
			if cfg.JournalPath != "" {
				journal, err := functions.OpenJournal(cfg.JournalPath)
				if err != nil {
					return err
				}
				defer journal.Close()
				maintainer.WithJournal(journal)
			}

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			report, err := maintainer.Maintain(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			fmt.Print(display.FormatMaintenanceReport(report))
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "report without modifying any records")
	return cmd
}
