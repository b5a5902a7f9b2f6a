package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/display"
	"github.com/metahuman-os/workflow-memory/pkg/functions"
)

func NewJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent library events",
		Long: `Read the observability journal: learning-gate decisions with their
rejection reasons, usage events and maintenance reports, newest first.`,
		Example: `  workflowctl journal --journal ./journal.db --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.JournalPath == "" {
				return fmt.Errorf("no journal path configured; pass --journal or set journal_path")
			}

			journal, err := functions.OpenJournal(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer journal.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			events, err := journal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			fmt.Print(display.FormatJournal(events))
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "maximum number of events to show")
	return cmd
}
