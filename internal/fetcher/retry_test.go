package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRetryHandler_Delay(t *testing.T) {
	cfg := config.NewDefaultFetchConfig()
	cfg.RetryBaseDelayMs = 100
	cfg.RetryMaxDelayMs = 350
	cfg.RetryEnableJitter = false
	rh := NewRetryHandler(cfg, zerolog.Nop())

	assert.Equal(t, 100*time.Millisecond, rh.CalculateDelay(0))
	assert.Equal(t, 200*time.Millisecond, rh.CalculateDelay(1))
	assert.Equal(t, 350*time.Millisecond, rh.CalculateDelay(2))
	assert.Equal(t, 350*time.Millisecond, rh.CalculateDelay(10))
}

func TestRetryHandler_Jitter(t *testing.T) {
	cfg := config.NewDefaultFetchConfig()
	cfg.RetryBaseDelayMs = 100
	cfg.RetryMaxDelayMs = 1000
	cfg.RetryEnableJitter = true
	rh := NewRetryHandler(cfg, zerolog.Nop())

	d := rh.CalculateDelay(0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 110*time.Millisecond)
}

func TestRetryHandler_ShouldRetry(t *testing.T) {
	cfg := config.NewDefaultFetchConfig()
	cfg.MaxRetries = 1
	cfg.RetryStatusCodes = []int{503}
	rh := NewRetryHandler(cfg, zerolog.Nop())

	assert.True(t, rh.ShouldRetryStatus(503, 0))
	assert.False(t, rh.ShouldRetryStatus(503, 1))
	assert.False(t, rh.ShouldRetryStatus(404, 0))

	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, rh.ShouldRetryError(ctx, 0))
	cancel()
	assert.False(t, rh.ShouldRetryError(ctx, 0))
}

func TestRetryHandler_WaitHonorsContext(t *testing.T) {
	cfg := config.NewDefaultFetchConfig()
	cfg.RetryBaseDelayMs = 60000
	cfg.RetryMaxDelayMs = 60000
	rh := NewRetryHandler(cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rh.Wait(ctx, 0, "https://a.test", "test"), context.Canceled)
}
