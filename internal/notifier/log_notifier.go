package notifier

import (
	"context"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
)

// LogNotifier writes the run outcome to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "LogNotifier").Logger()}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, result *models.RunResult) error {
	for _, rep := range result.Reports {
		var event *zerolog.Event
		switch rep.Status {
		case models.StatusChanged:
			event = n.logger.Warn()
		case models.StatusUnreachable:
			event = n.logger.Error().Str("error", rep.Error)
		default:
			event = n.logger.Info()
		}
		if rep.Degraded {
			event = event.Bool("degraded", true).Str("reason", rep.Reason)
		}
		if rep.Diff != nil {
			event = event.Int("lines_added", rep.Diff.LinesAdded).Int("lines_removed", rep.Diff.LinesRemoved)
		}
		event.Str("id", rep.ID).Str("status", string(rep.Status)).Msg("Resource checked")
	}

	counts := result.Counts()
	event := n.logger.Info()
	if result.StoreError != "" {
		event = n.logger.Error().Str("store_error", result.StoreError)
	}
	event.
		Str("run_id", result.RunID).
		Int("total", len(result.Reports)).
		Int("changed", counts[models.StatusChanged]).
		Int("unchanged", counts[models.StatusUnchanged]).
		Int("first_observation", counts[models.StatusFirstObservation]).
		Int("unreachable", counts[models.StatusUnreachable]).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration()).
		Msg("Run complete")
	return nil
}
