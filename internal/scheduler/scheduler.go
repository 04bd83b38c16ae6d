// Package scheduler repeats monitoring passes on an interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/rs/zerolog"
)

// Runner performs one monitoring pass.
type Runner interface {
	RunOnce(ctx context.Context, resources []models.Resource) (*models.RunResult, error)
}

// ConfigProvider returns the configuration for the next cycle. With hot
// reload it is config.Manager.GetConfig.
type ConfigProvider func() *config.GlobalConfig

// StaticConfig always returns cfg.
func StaticConfig(cfg *config.GlobalConfig) ConfigProvider {
	return func() *config.GlobalConfig { return cfg }
}

// Scheduler runs a pass immediately and then once per interval until the
// context ends, Stop is called or max_cycles passes have run.
type Scheduler struct {
	runner   Runner
	configFn ConfigProvider
	interval time.Duration // overrides monitor_config when > 0
	logger   zerolog.Logger

	stopChan  chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// NewScheduler creates a Scheduler.
func NewScheduler(runner Runner, configFn ConfigProvider, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		configFn: configFn,
		logger:   logger.With().Str("component", "Scheduler").Logger(),
		stopChan: make(chan struct{}),
	}
}

// WithInterval fixes the delay between cycles regardless of configuration.
func (s *Scheduler) WithInterval(d time.Duration) *Scheduler {
	s.interval = d
	return s
}

// Start blocks until the loop ends. It returns nil on cancellation, on Stop
// and after the last of max_cycles passes.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return common.NewError("scheduler is already running")
	}
	s.isRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Starting watch loop")
	for cycle := 1; ; cycle++ {
		cfg := s.configFn()
		s.runCycle(ctx, cfg, cycle)

		maxCycles := cfg.MonitorConfig.MaxCycles
		if maxCycles > 0 && cycle >= maxCycles {
			s.logger.Info().Int("cycles", cycle).Msg("Reached max cycles, stopping")
			return nil
		}

		interval := s.nextInterval(cfg)
		s.logger.Info().
			Time("next_run", time.Now().Add(interval)).
			Dur("interval", interval).
			Msg("Next cycle scheduled")

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Context cancelled, exiting watch loop")
			return nil
		case <-s.stopChan:
			timer.Stop()
			s.logger.Info().Msg("Stop requested, exiting watch loop")
			return nil
		}
	}
}

// Stop ends the loop after the current cycle. It is safe to call once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

func (s *Scheduler) nextInterval(cfg *config.GlobalConfig) time.Duration {
	if s.interval > 0 {
		return s.interval
	}
	return cfg.MonitorConfig.CheckInterval()
}

// runCycle performs one pass. Failures are logged; the loop goes on.
func (s *Scheduler) runCycle(ctx context.Context, cfg *config.GlobalConfig, cycle int) {
	resources := models.ResourcesFromConfig(cfg.Resources)
	if len(resources) == 0 {
		s.logger.Warn().Int("cycle", cycle).Msg("No resources configured, skipping cycle")
		return
	}

	s.logger.Info().Int("cycle", cycle).Int("resources", len(resources)).Msg("Starting cycle")
	result, err := s.runner.RunOnce(ctx, resources)

	switch {
	case err == nil:
	case errors.Is(err, store.ErrStoreLocked):
		s.logger.Warn().Err(err).Int("cycle", cycle).Msg("Store locked by another run, skipping cycle")
		return
	case ctx.Err() != nil:
		s.logger.Warn().Int("cycle", cycle).Msg("Cycle interrupted")
	default:
		s.logger.Error().Err(err).Int("cycle", cycle).Msg("Cycle failed")
	}

	if result != nil {
		counts := result.Counts()
		s.logger.Info().
			Int("cycle", cycle).
			Str("run_id", result.RunID).
			Int("changed", counts[models.StatusChanged]).
			Int("unreachable", counts[models.StatusUnreachable]).
			Dur("duration", result.Duration()).
			Msg("Cycle finished")
	}
}
