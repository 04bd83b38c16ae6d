package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/fetcher"
	"github.com/aleister1102/pagewatch/internal/fingerprint"
	"github.com/aleister1102/pagewatch/internal/history"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/snapshot"
	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	results []*models.RunResult
}

func (n *recordingNotifier) Notify(_ context.Context, result *models.RunResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

// hookFetcher runs before ahead of every fetch.
type hookFetcher struct {
	fetcher.Fetcher
	before func()
}

func (h *hookFetcher) Fetch(ctx context.Context, res models.Resource) (*fetcher.Result, error) {
	h.before()
	return h.Fetcher.Fetch(ctx, res)
}

func testServiceConfig(t *testing.T) *config.GlobalConfig {
	cfg := config.NewDefaultGlobalConfig()
	dir := t.TempDir()
	cfg.MonitorConfig.StorePath = filepath.Join(dir, "fingerprints.tsv")
	cfg.SnapshotConfig.BasePath = filepath.Join(dir, "snapshots")
	cfg.HistoryConfig.SQLiteDBPath = filepath.Join(dir, "history.db")
	return cfg
}

func TestMonitoringService_EndToEnd(t *testing.T) {
	cfg := testServiceConfig(t)
	f := newFakeFetcher(map[string]fakePage{
		"a.test": {body: "Hello"},
		"b.test": {body: "Hello"},
	})
	n := &recordingNotifier{}
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f, Notifier: n}, zerolog.Nop())
	res := resources("a.test", "b.test")

	first, err := svc.RunOnce(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Status{
		"a.test": models.StatusFirstObservation,
		"b.test": models.StatusFirstObservation,
	}, statuses(first))

	f.set("b.test", fakePage{body: "World"})
	second, err := svc.RunOnce(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Status{
		"a.test": models.StatusUnchanged,
		"b.test": models.StatusChanged,
	}, statuses(second))
	assert.Equal(t, 2, n.count())

	saved, err := store.Load(cfg.MonitorConfig.StorePath)
	require.NoError(t, err)
	fp, ok := saved.Get("b.test")
	require.True(t, ok)
	assert.Equal(t, fingerprint.Of("World"), fp)
	assert.NotEqual(t, fingerprint.Of("Hello"), fp)

	lock, err := store.AcquireLock(cfg.MonitorConfig.StorePath)
	require.NoError(t, err, "lock must be released after the run")
	require.NoError(t, lock.Release())
}

func TestMonitoringService_LockHeld(t *testing.T) {
	cfg := testServiceConfig(t)
	lock, err := store.AcquireLock(cfg.MonitorConfig.StorePath)
	require.NoError(t, err)
	defer lock.Release()

	n := &recordingNotifier{}
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: newFakeFetcher(map[string]fakePage{}), Notifier: n}, zerolog.Nop())

	result, err := svc.RunOnce(context.Background(), resources("a.test"))
	require.ErrorIs(t, err, store.ErrStoreLocked)
	assert.Nil(t, result)
	assert.Zero(t, n.count())
}

func TestMonitoringService_StoreWriteFailureStillNotifies(t *testing.T) {
	cfg := testServiceConfig(t)
	storePath := cfg.MonitorConfig.StorePath
	f := &hookFetcher{
		Fetcher: newFakeFetcher(map[string]fakePage{"a.test": {body: "Hello"}}),
		// A directory in place of the store file makes the final rename fail.
		before: func() { _ = os.MkdirAll(storePath, 0755) },
	}
	n := &recordingNotifier{}
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f, Notifier: n}, zerolog.Nop())

	result, err := svc.RunOnce(context.Background(), resources("a.test"))
	var writeErr *store.StoreWriteError
	require.ErrorAs(t, err, &writeErr)
	require.NotNil(t, result)
	assert.Len(t, result.Reports, 1)
	assert.NotEmpty(t, result.StoreError)
	require.Equal(t, 1, n.count())
	assert.Equal(t, result.StoreError, n.results[0].StoreError)
}

func TestMonitoringService_CancelledRunDoesNotPersist(t *testing.T) {
	cfg := testServiceConfig(t)
	cfg.MonitorConfig.MaxConcurrentChecks = 1
	f := newFakeFetcher(map[string]fakePage{
		"a.test":    {body: "Hello"},
		"slow.test": {block: true},
	})
	n := &recordingNotifier{}
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f, Notifier: n}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	result, err := svc.RunOnce(ctx, resources("a.test", "slow.test"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, n.count())

	_, err = os.Stat(cfg.MonitorConfig.StorePath)
	assert.True(t, os.IsNotExist(err))
}

func TestMonitoringService_CancelledIncrementalRunKeepsCompletedWork(t *testing.T) {
	cfg := testServiceConfig(t)
	cfg.MonitorConfig.MaxConcurrentChecks = 1
	cfg.MonitorConfig.IncrementalPersist = true
	f := newFakeFetcher(map[string]fakePage{
		"a.test":    {body: "Hello"},
		"slow.test": {block: true},
	})
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := svc.RunOnce(ctx, resources("a.test", "slow.test"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	saved, err := store.Load(cfg.MonitorConfig.StorePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.test"}, saved.IDs())
}

func TestMonitoringService_CorruptStore(t *testing.T) {
	write := func(t *testing.T, cfg *config.GlobalConfig) {
		require.NoError(t, os.WriteFile(cfg.MonitorConfig.StorePath, []byte("not a fingerprint store\n"), 0644))
	}
	pages := map[string]fakePage{"a.test": {body: "Hello"}}

	t.Run("fail", func(t *testing.T) {
		cfg := testServiceConfig(t)
		cfg.MonitorConfig.OnCorruptStore = config.CorruptPolicyFail
		write(t, cfg)
		svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: newFakeFetcher(pages)}, zerolog.Nop())

		_, err := svc.RunOnce(context.Background(), resources("a.test"))
		var corrupt *store.StoreCorruptError
		require.ErrorAs(t, err, &corrupt)

		data, readErr := os.ReadFile(cfg.MonitorConfig.StorePath)
		require.NoError(t, readErr)
		assert.Equal(t, "not a fingerprint store\n", string(data))
	})

	t.Run("fresh", func(t *testing.T) {
		cfg := testServiceConfig(t)
		cfg.MonitorConfig.OnCorruptStore = config.CorruptPolicyFresh
		write(t, cfg)
		svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: newFakeFetcher(pages)}, zerolog.Nop())

		result, err := svc.RunOnce(context.Background(), resources("a.test"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusFirstObservation, result.Reports[0].Status)

		entries, err := os.ReadDir(filepath.Dir(cfg.MonitorConfig.StorePath))
		require.NoError(t, err)
		var aside bool
		for _, e := range entries {
			if strings.Contains(e.Name(), ".corrupt-") {
				aside = true
			}
		}
		assert.True(t, aside, "corrupt file should be moved aside")
	})
}

func TestMonitoringService_AttachesDiffs(t *testing.T) {
	cfg := testServiceConfig(t)
	cfg.SnapshotConfig.Enabled = true
	f := newFakeFetcher(map[string]fakePage{"a.test": {body: "line one\nline two\n"}})
	archive := snapshot.NewArchive(cfg.SnapshotConfig, zerolog.Nop())
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f, Archive: archive}, zerolog.Nop())

	_, err := svc.RunOnce(context.Background(), resources("a.test"))
	require.NoError(t, err)

	f.set("a.test", fakePage{body: "line one\nline three\n"})
	result, err := svc.RunOnce(context.Background(), resources("a.test"))
	require.NoError(t, err)

	r := result.Reports[0]
	require.Equal(t, models.StatusChanged, r.Status)
	require.NotNil(t, r.Diff)
	assert.Equal(t, 1, r.Diff.LinesAdded)
	assert.Equal(t, 1, r.Diff.LinesRemoved)
	assert.Contains(t, r.Diff.Preview, "+line three")

	records, err := archive.Records("a.test", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "line one\nline three", records[0].Content)
}

func TestMonitoringService_RecordsHistory(t *testing.T) {
	cfg := testServiceConfig(t)
	db, err := history.NewDB(cfg.HistoryConfig.SQLiteDBPath, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	f := newFakeFetcher(map[string]fakePage{"a.test": {body: "Hello"}})
	svc := NewMonitoringServiceWith(cfg, ServiceDeps{Fetcher: f, History: db}, zerolog.Nop())

	result, err := svc.RunOnce(context.Background(), resources("a.test", "missing.test"))
	require.NoError(t, err)

	run, err := db.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, history.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Unreachable)

	reports, err := db.GetRunReports(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestNewMonitoringService_FromConfig(t *testing.T) {
	cfg := testServiceConfig(t)
	cfg.SnapshotConfig.Enabled = true
	svc, err := NewMonitoringService(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, svc.deps.Archive)
	assert.NotNil(t, svc.deps.History)
	assert.NotNil(t, svc.Monitor())
	require.NoError(t, svc.Close())

	cfg.FetchConfig.Transport = "gopher"
	_, err = NewMonitoringService(cfg, zerolog.Nop())
	assert.Error(t, err)
}
