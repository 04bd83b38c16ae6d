// Package monitor runs change-detection passes over monitored resources.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/fetcher"
	"github.com/aleister1102/pagewatch/internal/fingerprint"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/normalizer"
	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Limiter delays fetches while the host is under pressure.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Monitor fetches, normalizes and fingerprints resources and compares the
// results with a fingerprint store.
type Monitor struct {
	maxConcurrent int
	incremental   bool
	storePath     string
	limiter       Limiter
	now           func() time.Time
	newRunID      func() string
	logger        zerolog.Logger
}

// NewMonitor creates a Monitor from monitor_config.
func NewMonitor(cfg config.MonitorConfig, logger zerolog.Logger) *Monitor {
	maxConcurrent := cfg.MaxConcurrentChecks
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMonitorMaxConcurrentChecks
	}
	return &Monitor{
		maxConcurrent: maxConcurrent,
		incremental:   cfg.IncrementalPersist,
		storePath:     cfg.StorePath,
		now:           time.Now,
		newRunID:      uuid.NewString,
		logger:        logger.With().Str("component", "Monitor").Logger(),
	}
}

// WithLimiter makes every fetch wait on l first.
func (m *Monitor) WithLimiter(l Limiter) *Monitor {
	m.limiter = l
	return m
}

// WithClock replaces the time source used for report timestamps.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// checkOutcome is what a worker hands back for one resource. fp is nil when
// the fetch failed.
type checkOutcome struct {
	index     int
	res       models.Resource
	fp        *fingerprint.Fingerprint
	text      string
	fetchErr  error
	degraded  string
	checkedAt time.Time
}

// Run checks every resource and updates st in memory. Reports come back in
// input order. Workers only fetch and fingerprint; this goroutine alone reads
// and writes st. In incremental mode st is saved after each successful check.
//
// On cancellation Run returns the reports of the resources that completed
// together with ctx.Err(). A failed incremental save is returned as a
// *store.StoreWriteError and recorded in the result.
func (m *Monitor) Run(ctx context.Context, resources []models.Resource, f fetcher.Fetcher, st *store.Store) (*models.RunResult, error) {
	result := &models.RunResult{
		RunID:     m.newRunID(),
		StartedAt: m.now(),
	}
	unique := m.dedupe(resources)

	m.logger.Info().
		Str("run_id", result.RunID).
		Int("resources", len(unique)).
		Int("max_concurrent", m.maxConcurrent).
		Bool("incremental", m.incremental).
		Msg("Starting monitoring run")

	outcomes := make(chan checkOutcome)
	go func() {
		defer close(outcomes)
		var g errgroup.Group
		g.SetLimit(m.maxConcurrent)
		for i, res := range unique {
			if ctx.Err() != nil {
				break
			}
			i, res := i, res
			g.Go(func() error {
				if out, ok := m.check(ctx, i, res, f); ok {
					outcomes <- out
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	slots := make([]*models.ChangeReport, len(unique))
	var flushErr error
	for out := range outcomes {
		report := m.apply(out, st)
		slots[out.index] = &report

		if m.incremental && out.fp != nil {
			if err := store.Save(m.storePath, st); err != nil {
				m.logger.Error().Err(err).Str("id", out.res.ID).Msg("Incremental store flush failed")
				if flushErr == nil {
					flushErr = err
				}
			}
		}
	}

	for _, r := range slots {
		if r != nil {
			result.Reports = append(result.Reports, *r)
		}
	}
	result.FinishedAt = m.now()
	if flushErr != nil {
		result.StoreError = flushErr.Error()
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		result.Cancelled = true
		m.logger.Warn().
			Str("run_id", result.RunID).
			Int("completed", len(result.Reports)).
			Int("total", len(unique)).
			Msg("Monitoring run cancelled")
	}
	return result, errors.Join(ctxErr, flushErr)
}

// dedupe drops repeated IDs, keeping the first occurrence.
func (m *Monitor) dedupe(resources []models.Resource) []models.Resource {
	seen := make(map[string]struct{}, len(resources))
	unique := make([]models.Resource, 0, len(resources))
	for _, res := range resources {
		if _, dup := seen[res.ID]; dup {
			m.logger.Warn().Str("id", res.ID).Msg("Duplicate resource ID skipped")
			continue
		}
		seen[res.ID] = struct{}{}
		unique = append(unique, res)
	}
	return unique
}

// check runs in a worker. It reports ok=false when the run was cancelled
// before the resource completed.
func (m *Monitor) check(ctx context.Context, index int, res models.Resource, f fetcher.Fetcher) (checkOutcome, bool) {
	out := checkOutcome{index: index, res: res}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return out, false
		}
	}
	if ctx.Err() != nil {
		return out, false
	}

	fetched, err := f.Fetch(ctx, res)
	if err != nil {
		if ctx.Err() != nil {
			return out, false
		}
		m.logger.Debug().Err(err).Str("id", res.ID).Msg("Fetch failed")
		out.fetchErr = err
		out.checkedAt = m.now()
		return out, true
	}

	kind := fetcher.DetectKind(res.Kind, fetched.ContentType, fetched.Body)
	text, err := normalizer.Normalize(fetched.Body, kind, res.Selector)
	if err != nil {
		var malformed *normalizer.MalformedContentError
		if !errors.As(err, &malformed) {
			m.logger.Warn().Err(err).Str("id", res.ID).Msg("Unexpected normalization error")
		}
		m.logger.Debug().Err(err).Str("id", res.ID).Msg("Falling back to literal text")
		text = normalizer.NormalizeText(string(fetched.Body))
		out.degraded = err.Error()
	}

	fp := fingerprint.Of(text)
	out.fp = &fp
	out.text = text
	out.checkedAt = m.now()
	return out, true
}

// apply compares an outcome with the store and records the new fingerprint.
func (m *Monitor) apply(out checkOutcome, st *store.Store) models.ChangeReport {
	var previous *fingerprint.Fingerprint
	if fp, ok := st.Get(out.res.ID); ok {
		previous = &fp
	}

	report := models.NewReport(out.res, previous, out.fp, out.checkedAt)
	if out.fetchErr != nil {
		report.Error = out.fetchErr.Error()
	}
	if out.degraded != "" {
		report.Degraded = true
		report.Reason = out.degraded
	}
	report.Text = out.text

	if out.fp != nil {
		st.Set(out.res.ID, *out.fp)
	}

	m.logger.Debug().Str("id", out.res.ID).Str("status", string(report.Status)).Msg("Resource checked")
	return report
}
