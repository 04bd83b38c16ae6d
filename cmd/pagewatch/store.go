package main

import (
	"fmt"

	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/spf13/cobra"
)

func newStoreCmd(flags *appFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect or maintain the fingerprint store",
	}
	cmd.AddCommand(newStoreShowCmd(flags), newStorePruneCmd(flags))
	return cmd
}

func newStoreShowCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every stored ID and fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := store.Load(a.config().MonitorConfig.StorePath)
			if err != nil {
				return err
			}
			return store.Dump(cmd.OutOrStdout(), st)
		},
	}
}

func newStorePruneCmd(flags *appFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove fingerprints of resources that are no longer configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			cfg := a.config()
			storePath := cfg.MonitorConfig.StorePath

			lock, err := store.AcquireLock(storePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					a.logger.Error().Err(err).Msg("Failed to release store lock")
				}
			}()

			st, err := store.Load(storePath)
			if err != nil {
				return err
			}
			keep := make(map[string]struct{}, len(cfg.Resources))
			for _, r := range cfg.Resources {
				keep[r.ID] = struct{}{}
			}

			removed := st.Prune(keep)
			out := cmd.OutOrStdout()
			for _, id := range removed {
				fmt.Fprintf(out, "removed %s\n", store.EscapeID(id))
			}
			if dryRun || len(removed) == 0 {
				fmt.Fprintf(out, "%d of %d entries unconfigured; store unchanged\n", len(removed), st.Len()+len(removed))
				return nil
			}
			if err := store.Save(storePath, st); err != nil {
				return err
			}
			a.logger.Info().Int("removed", len(removed)).Int("kept", st.Len()).Msg("Fingerprint store pruned")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be removed without saving")
	return cmd
}
