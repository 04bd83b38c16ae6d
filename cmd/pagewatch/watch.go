package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/scheduler"
	"github.com/spf13/cobra"
)

func newWatchCmd(flags *appFlags) *cobra.Command {
	var (
		hotReload bool
		interval  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check resources periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, hotReload)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Store, fetch and notification settings are fixed at startup;
			// resources, interval and max_cycles follow config reloads.
			svc, err := monitor.NewMonitoringService(a.config(), a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					a.logger.Warn().Err(err).Msg("Failed to close monitoring service")
				}
			}()

			a.manager.StartHotReload(ctx)
			s := scheduler.NewScheduler(svc, a.manager.GetConfig, a.logger)
			if interval > 0 {
				s.WithInterval(interval)
			}
			return s.Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&hotReload, "hot-reload", false, "reload the config file when it changes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "override monitor_config.check_interval_seconds (e.g. 10m)")
	return cmd
}
