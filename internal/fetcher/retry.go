package fetcher

import (
	"context"
	"math/rand"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
)

// RetryHandler decides whether and when a failed request is repeated.
type RetryHandler struct {
	maxRetries       int
	baseDelay        time.Duration
	maxDelay         time.Duration
	enableJitter     bool
	retryStatusCodes map[int]bool
	logger           zerolog.Logger
}

// NewRetryHandler builds a retry handler from fetch_config.
func NewRetryHandler(cfg config.FetchConfig, logger zerolog.Logger) *RetryHandler {
	codes := make(map[int]bool, len(cfg.RetryStatusCodes))
	for _, code := range cfg.RetryStatusCodes {
		codes[code] = true
	}
	return &RetryHandler{
		maxRetries:       cfg.MaxRetries,
		baseDelay:        time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		maxDelay:         time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		enableJitter:     cfg.RetryEnableJitter,
		retryStatusCodes: codes,
		logger:           logger.With().Str("component", "RetryHandler").Logger(),
	}
}

// ShouldRetryStatus reports whether statusCode is retryable on this attempt.
func (rh *RetryHandler) ShouldRetryStatus(statusCode, attempt int) bool {
	return attempt < rh.maxRetries && rh.retryStatusCodes[statusCode]
}

// ShouldRetryError reports whether a transport error is retryable on this attempt.
func (rh *RetryHandler) ShouldRetryError(ctx context.Context, attempt int) bool {
	return attempt < rh.maxRetries && ctx.Err() == nil
}

// CalculateDelay returns baseDelay*2^attempt capped at maxDelay, plus up to 10% jitter.
func (rh *RetryHandler) CalculateDelay(attempt int) time.Duration {
	delay := rh.baseDelay
	for i := 0; i < attempt && delay < rh.maxDelay; i++ {
		delay *= 2
	}
	if rh.maxDelay > 0 && delay > rh.maxDelay {
		delay = rh.maxDelay
	}
	if rh.enableJitter && delay >= 10*time.Millisecond {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}

// Wait sleeps before the next attempt or returns early with ctx's error.
func (rh *RetryHandler) Wait(ctx context.Context, attempt int, url string, reason string) error {
	delay := rh.CalculateDelay(attempt)
	rh.logger.Debug().
		Str("url", url).
		Str("reason", reason).
		Int("attempt", attempt+1).
		Int("max_retries", rh.maxRetries).
		Dur("delay", delay).
		Msg("Retrying request")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
