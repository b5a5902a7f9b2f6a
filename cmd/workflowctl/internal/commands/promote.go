package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPromoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id>",
		Short: "Promote a draft function to the verified tier",
		Long: `Move a vetted draft function to the verified tier. Verified functions earn
a trust bonus in their quality score and are exempt from draft maintenance.

Promoting an already-verified function is a no-op.`,
		Example: `  workflowctl promote 6b2f1c90-1d2e-4f3a-9c8b-7a6d5e4f3a2b --dir ./functions`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}

			if err := store.Promote(args[0]); err != nil {
				return err
			}

			record, err := store.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Promoted %q (quality %.2f)\n", record.Title, record.Metadata.QualityScore)
			return nil
		},
	}
}
