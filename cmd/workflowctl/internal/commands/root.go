package commands

import (
	"github.com/spf13/cobra"

	"github.com/metahuman-os/workflow-memory/pkg/functions"
)

// resolveConfig builds the effective configuration from the persistent flags:
// defaults, overlaid with --config when given, then the --dir and --journal
// overrides.
func resolveConfig(cmd *cobra.Command) (functions.Config, error) {
	cfg := functions.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := functions.LoadConfig(path)
		if err != nil {
			return functions.Config{}, err
		}
		cfg = loaded
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.BaseDir = dir
	}
	if journal, _ := cmd.Flags().GetString("journal"); journal != "" {
		cfg.JournalPath = journal
	}

	return cfg, nil
}

func openStore(cmd *cobra.Command) (*functions.Store, functions.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, functions.Config{}, err
	}
	store, err := functions.NewStore(cfg.BaseDir)
	if err != nil {
		return nil, functions.Config{}, err
	}
	store.WithLockTimeout(cfg.LockTimeout.Std())
	return store, cfg, nil
}
