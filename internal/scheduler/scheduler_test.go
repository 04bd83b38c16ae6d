package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]models.Resource
	errs  []error
}

func (r *fakeRunner) RunOnce(_ context.Context, resources []models.Resource) (*models.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, resources)
	var err error
	if n := len(r.calls); n <= len(r.errs) {
		err = r.errs[n-1]
	}
	if errors.Is(err, store.ErrStoreLocked) {
		return nil, err
	}
	now := time.Now()
	return &models.RunResult{RunID: "run", StartedAt: now, FinishedAt: now}, err
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testConfig(maxCycles int) *config.GlobalConfig {
	cfg := config.NewDefaultGlobalConfig()
	cfg.MonitorConfig.MaxCycles = maxCycles
	cfg.Resources = []config.ResourceConfig{{ID: "https://a.test"}}
	return cfg
}

func TestScheduler_StopsAfterMaxCycles(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, StaticConfig(testConfig(3)), zerolog.Nop()).WithInterval(time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, runner.callCount())
}

func TestScheduler_FailingCycleDoesNotStopLoop(t *testing.T) {
	runner := &fakeRunner{errs: []error{
		errors.New("boom"),
		store.ErrStoreLocked,
	}}
	s := NewScheduler(runner, StaticConfig(testConfig(3)), zerolog.Nop()).WithInterval(time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, runner.callCount())
}

func TestScheduler_FirstCycleRunsImmediately(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, StaticConfig(testConfig(0)), zerolog.Nop()).WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, 1, runner.callCount())
}

func TestScheduler_Stop(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, StaticConfig(testConfig(0)), zerolog.Nop()).WithInterval(time.Hour)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_AlreadyRunning(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, StaticConfig(testConfig(0)), zerolog.Nop()).WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Error(t, s.Start(ctx))
}

func TestScheduler_UsesLatestConfig(t *testing.T) {
	runner := &fakeRunner{}
	var mu sync.Mutex
	current := testConfig(2)
	provider := func() *config.GlobalConfig {
		mu.Lock()
		defer mu.Unlock()
		cfg := current
		// The second cycle sees an edited configuration.
		next := testConfig(2)
		next.Resources = append(next.Resources, config.ResourceConfig{ID: "b", URL: "https://b.test"})
		current = next
		return cfg
	}
	s := NewScheduler(runner, provider, zerolog.Nop()).WithInterval(time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, 2, runner.callCount())

	ids := func(res []models.Resource) []string {
		var out []string
		for _, r := range res {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"https://a.test"}, ids(runner.calls[0]))
	assert.Equal(t, []string{"https://a.test", "b"}, ids(runner.calls[1]))
	assert.Equal(t, "https://b.test", runner.calls[1][1].URL)
}

func TestScheduler_SkipsEmptyResourceList(t *testing.T) {
	runner := &fakeRunner{}
	cfg := testConfig(2)
	cfg.Resources = nil
	s := NewScheduler(runner, StaticConfig(cfg), zerolog.Nop()).WithInterval(time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.Zero(t, runner.callCount())
}
