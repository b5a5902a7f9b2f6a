package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/cmd/workflowctl/internal/display"
	"github.com/metahuman-os/workflow-memory/pkg/functions"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored workflow functions",
		Long: `Display the workflow functions in the library with their trust tier,
usage statistics and quality scores.

Results can be narrowed to one trust tier or to functions using a specific
skill, and sorted by quality, usage or creation time.`,
		Example: `  # List everything, best quality first
  workflowctl list --dir ./functions

  # Only verified functions that read files
  workflowctl list --trust verified --skill fs_read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}

			trust, _ := cmd.Flags().GetString("trust")
			skill, _ := cmd.Flags().GetString("skill")
			sortBy, _ := cmd.Flags().GetString("sort")
			limit, _ := cmd.Flags().GetInt("limit")

			records, err := store.List(functions.ListFilter{
				TrustLevel: functions.TrustLevel(trust),
				UsesSkill:  skill,
				SortBy:     functions.SortField(sortBy),
				SortOrder:  functions.SortDescending,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			fmt.Print(display.FormatFunctionList(records))
			return nil
		},
	}

	cmd.Flags().String("trust", "", "filter by trust tier (draft or verified)")
	cmd.Flags().String("skill", "", "only functions whose steps use this skill id")
	cmd.Flags().String("sort", string(functions.SortByQuality), "sort field (quality_score, usage_count, created_at)")
	cmd.Flags().Int("limit", 0, "maximum number of results (0 for all)")
	return cmd
}
