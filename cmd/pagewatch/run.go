package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *appFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check every resource once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			cfg := a.config()

			resources := models.ResourcesFromConfig(cfg.Resources)
			if len(resources) == 0 {
				return common.NewValidationError("resources", 0, "no resources configured; add resources to the config or pass --targets")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := monitor.NewMonitoringService(cfg, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					a.logger.Warn().Err(err).Msg("Failed to close monitoring service")
				}
			}()

			result, runErr := svc.RunOnce(ctx, resources)
			if asJSON && result != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return common.WrapError(err, "failed to encode run result")
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run result as JSON on stdout")
	return cmd
}
