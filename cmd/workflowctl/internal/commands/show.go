package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/display"
)

func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one workflow function in full",
		Long: `Display a single workflow function: its step sequence, recorded examples,
usage statistics and quality score.`,
		Example: `  workflowctl show 6b2f1c90-1d2e-4f3a-9c8b-7a6d5e4f3a2b --dir ./functions`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}

			record, err := store.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Print(display.FormatFunctionDetails(record))
			return nil
		},
	}
}
