// Package notifier delivers run results to people.
package notifier

import (
	"context"
	"net/http"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
)

// Notifier receives the complete result of a run.
type Notifier interface {
	Notify(ctx context.Context, result *models.RunResult) error
}

// ShouldNotify applies notification_config.notify_when to a result.
func ShouldNotify(when string, result *models.RunResult) bool {
	switch when {
	case config.NotifyWhenAlways:
		return true
	case config.NotifyWhenNever:
		return false
	default:
		return result.HasChanges()
	}
}

// Multi fans a result out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, result *models.RunResult) error {
	var ec common.ErrorCollector
	for _, n := range m {
		ec.Add(n.Notify(ctx, result))
	}
	return ec.Error()
}

// Dispatcher always writes the log summary and forwards to the external
// notifiers when notify_when allows it.
type Dispatcher struct {
	when      string
	log       *LogNotifier
	notifiers Multi
	logger    zerolog.Logger
}

// NewDispatcher builds the notifiers enabled in notification_config.
func NewDispatcher(cfg config.NotificationConfig, logger zerolog.Logger) *Dispatcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultNotifierTimeout) * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	var notifiers Multi
	if cfg.DiscordWebhookURL != "" {
		notifiers = append(notifiers, NewDiscordNotifier(cfg, httpClient, logger))
	}
	if cfg.Email.Enabled {
		notifiers = append(notifiers, NewEmailNotifier(cfg.Email, timeout, logger))
	}
	return NewDispatcherWith(cfg.NotifyWhen, logger, notifiers...)
}

// NewDispatcherWith builds a dispatcher around the given external notifiers.
func NewDispatcherWith(when string, logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	if when == "" {
		when = config.DefaultNotifyWhen
	}
	return &Dispatcher{
		when:      when,
		log:       NewLogNotifier(logger),
		notifiers: notifiers,
		logger:    logger.With().Str("component", "NotificationDispatcher").Logger(),
	}
}

// Notify implements Notifier. Failures are logged and returned.
func (d *Dispatcher) Notify(ctx context.Context, result *models.RunResult) error {
	_ = d.log.Notify(ctx, result)

	if len(d.notifiers) == 0 {
		return nil
	}
	if !ShouldNotify(d.when, result) {
		d.logger.Debug().Str("notify_when", d.when).Msg("Skipping external notifications")
		return nil
	}
	if err := d.notifiers.Notify(ctx, result); err != nil {
		d.logger.Error().Err(err).Msg("Notification delivery failed")
		return err
	}
	return nil
}
