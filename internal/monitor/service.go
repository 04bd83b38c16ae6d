package monitor

import (
	"context"
	"errors"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/fetcher"
	"github.com/aleister1102/pagewatch/internal/history"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/notifier"
	"github.com/aleister1102/pagewatch/internal/rslimiter"
	"github.com/aleister1102/pagewatch/internal/snapshot"
	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/rs/zerolog"
)

// HistoryRecorder persists finished runs.
type HistoryRecorder interface {
	RecordRun(ctx context.Context, result *models.RunResult) error
}

// ServiceDeps are the collaborators of a Service. Nil Archive and History
// disable those steps.
type ServiceDeps struct {
	Fetcher  fetcher.Fetcher
	Notifier notifier.Notifier
	History  HistoryRecorder
	Archive  *snapshot.Archive
	Limiter  *rslimiter.ResourceLimiter
}

// MonitoringService performs complete passes: lock, load, check, persist,
// record and notify.
type MonitoringService struct {
	cfg     *config.GlobalConfig
	deps    ServiceDeps
	monitor *Monitor
	differ  *differ.ContentDiffer
	closers []func() error
	logger  zerolog.Logger
}

// NewMonitoringService wires the collaborators enabled in cfg.
func NewMonitoringService(cfg *config.GlobalConfig, logger zerolog.Logger) (*MonitoringService, error) {
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := ServiceDeps{
		Fetcher:  f,
		Notifier: notifier.NewDispatcher(cfg.NotificationConfig, logger),
		Limiter:  rslimiter.NewResourceLimiter(cfg.ResourceLimiterConfig, logger),
	}
	if cfg.SnapshotConfig.Enabled {
		deps.Archive = snapshot.NewArchive(cfg.SnapshotConfig, logger)
	}

	var closers []func() error
	if c, ok := f.(fetcher.Closer); ok {
		closers = append(closers, c.Close)
	}
	if cfg.HistoryConfig.Enabled {
		db, err := history.NewDB(cfg.HistoryConfig.SQLiteDBPath, logger)
		if err != nil {
			for _, closeFn := range closers {
				_ = closeFn()
			}
			return nil, err
		}
		deps.History = db
		closers = append(closers, db.Close)
	}

	s := NewMonitoringServiceWith(cfg, deps, logger)
	s.closers = closers
	return s, nil
}

// NewMonitoringServiceWith builds a service around explicit collaborators.
func NewMonitoringServiceWith(cfg *config.GlobalConfig, deps ServiceDeps, logger zerolog.Logger) *MonitoringService {
	m := NewMonitor(cfg.MonitorConfig, logger)
	if deps.Limiter.Enabled() {
		m.WithLimiter(deps.Limiter)
	}
	return &MonitoringService{
		cfg:     cfg,
		deps:    deps,
		monitor: m,
		differ: differ.NewContentDiffer(differ.DiffConfig{
			ContextLines:    differ.DefaultDiffConfig().ContextLines,
			MaxPreviewLines: cfg.SnapshotConfig.MaxPreviewLines,
		}),
		logger: logger.With().Str("component", "MonitoringService").Logger(),
	}
}

// Monitor exposes the underlying Monitor.
func (s *MonitoringService) Monitor() *Monitor {
	return s.monitor
}

// RunOnce performs one pass over resources. The result is returned whenever
// the checks ran, even if persisting the store failed; in that case the error
// wraps *store.StoreWriteError and the result has already been notified.
func (s *MonitoringService) RunOnce(ctx context.Context, resources []models.Resource) (*models.RunResult, error) {
	storePath := s.cfg.MonitorConfig.StorePath

	lock, err := store.AcquireLock(storePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to release store lock")
		}
	}()

	st, err := store.Open(storePath, s.cfg.MonitorConfig.OnCorruptStore, s.logger)
	if err != nil {
		return nil, err
	}

	result, runErr := s.monitor.Run(ctx, resources, s.deps.Fetcher, st)
	s.attachDiffs(result)

	var saveErr error
	if result.Cancelled && !s.cfg.MonitorConfig.IncrementalPersist {
		s.logger.Warn().Str("run_id", result.RunID).Msg("Run cancelled, fingerprint store left unchanged")
	} else if saveErr = store.Save(storePath, st); saveErr != nil {
		s.logger.Error().Err(saveErr).Str("path", storePath).Msg("Failed to save fingerprint store")
		result.StoreError = saveErr.Error()
	} else {
		s.archive(result)
	}

	// Recording and notifying still happen after Ctrl-C.
	postCtx := context.WithoutCancel(ctx)
	if s.deps.History != nil {
		if err := s.deps.History.RecordRun(postCtx, result); err != nil {
			s.logger.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to record run history")
		}
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(postCtx, result); err != nil {
			s.logger.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to send notifications")
		}
	}
	if s.deps.Limiter != nil {
		s.deps.Limiter.LogUsage()
	}

	return result, errors.Join(runErr, saveErr)
}

// attachDiffs compares changed resources with their last archived text.
func (s *MonitoringService) attachDiffs(result *models.RunResult) {
	if s.deps.Archive == nil {
		return
	}
	for i := range result.Reports {
		rep := &result.Reports[i]
		if rep.Status != models.StatusChanged {
			continue
		}
		prev, err := s.deps.Archive.Latest(rep.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", rep.ID).Msg("Failed to read previous snapshot")
			continue
		}
		if prev == nil {
			continue
		}
		rep.Diff = s.differ.Compare(prev.Content, rep.Text)
	}
}

// archive stores the new text of every fetched resource.
func (s *MonitoringService) archive(result *models.RunResult) {
	if s.deps.Archive == nil {
		return
	}
	for _, rep := range result.Reports {
		if rep.Current == nil {
			continue
		}
		err := s.deps.Archive.Append(snapshot.Record{
			ResourceID:  rep.ID,
			RunID:       result.RunID,
			Timestamp:   rep.CheckedAt.UnixMilli(),
			Fingerprint: rep.Current.String(),
			Content:     rep.Text,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("id", rep.ID).Msg("Failed to archive snapshot")
		}
	}
}

// Close releases the fetcher and the history database.
func (s *MonitoringService) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
