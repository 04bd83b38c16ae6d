package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/notifier/discord"
	"github.com/rs/zerolog"
)

// Discord formatting constants
const (
	DiscordUsername   = "pagewatch"
	SuccessEmbedColor = 0x5CB85C
	ErrorEmbedColor   = 0xD9534F
	WarningEmbedColor = 0xF0AD4E
	InfoEmbedColor    = 0x5BC0DE

	maxListedResources = 15
)

// DiscordNotifier posts run results to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	mentions   string
	client     *discord.Client
	logger     zerolog.Logger
}

// NewDiscordNotifier creates a DiscordNotifier from notification_config.
func NewDiscordNotifier(cfg config.NotificationConfig, httpClient *http.Client, logger zerolog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: cfg.DiscordWebhookURL,
		mentions:   buildMentions(cfg.MentionRoleIDs),
		client:     discord.NewClient(httpClient, logger),
		logger:     logger.With().Str("component", "DiscordNotifier").Logger(),
	}
}

// Notify implements Notifier.
func (dn *DiscordNotifier) Notify(ctx context.Context, result *models.RunResult) error {
	payload, err := dn.buildPayload(result)
	if err != nil {
		return fmt.Errorf("failed to build discord payload: %w", err)
	}
	if err := dn.client.Send(ctx, dn.webhookURL, payload); err != nil {
		return fmt.Errorf("discord notification failed: %w", err)
	}
	dn.logger.Info().Str("run_id", result.RunID).Msg("Discord notification sent")
	return nil
}

func (dn *DiscordNotifier) buildPayload(result *models.RunResult) (discord.DiscordMessagePayload, error) {
	changed := result.Filter(models.StatusChanged)
	unreachable := result.Filter(models.StatusUnreachable)
	first := result.Filter(models.StatusFirstObservation)

	builder := discord.NewDiscordEmbedBuilder().
		WithTitle(embedTitle(len(changed), len(unreachable))).
		WithDescription(fmt.Sprintf("**Run:** `%s`\n%s", result.RunID, summaryLine(result))).
		WithColor(embedColor(len(changed), len(unreachable))).
		WithTimestamp(result.FinishedAt).
		WithFooter("pagewatch", "")

	builder.AddField("📝 Changed", listReports(changed, func(rep models.ChangeReport) string {
		line := "• `" + rep.ID + "`"
		if rep.Diff != nil {
			line += fmt.Sprintf(" (+%d/-%d)", rep.Diff.LinesAdded, rep.Diff.LinesRemoved)
		}
		return line
	}), false)
	builder.AddField("⚠️ Unreachable", listReports(unreachable, func(rep models.ChangeReport) string {
		return fmt.Sprintf("• `%s`: %s", rep.ID, discord.Truncate(rep.Error, 150))
	}), false)
	builder.AddField("🆕 First observation", listReports(first, func(rep models.ChangeReport) string {
		return "• `" + rep.ID + "`"
	}), false)

	for _, rep := range changed {
		if rep.Diff == nil || rep.Diff.Preview == "" {
			continue
		}
		preview := discord.Truncate(rep.Diff.Preview, discord.MaxFieldValueLength-12)
		builder.AddField("Diff: "+rep.ID, "```diff\n"+preview+"\n```", false)
	}
	if result.StoreError != "" {
		builder.AddField("❌ Store error", result.StoreError, false)
	}

	embed, err := builder.Build()
	if err != nil {
		return discord.DiscordMessagePayload{}, err
	}
	return discord.NewDiscordMessagePayloadBuilder().
		WithUsername(DiscordUsername).
		WithContent(dn.mentions).
		AddEmbed(embed).
		Build(), nil
}

func embedTitle(changed, unreachable int) string {
	switch {
	case changed > 0:
		return "🔔 " + config.DefaultEmailSubject
	case unreachable > 0:
		return "⚠️ Some websites could not be checked"
	default:
		return "✅ No changes detected"
	}
}

func embedColor(changed, unreachable int) int {
	switch {
	case changed > 0:
		return WarningEmbedColor
	case unreachable > 0:
		return ErrorEmbedColor
	default:
		return SuccessEmbedColor
	}
}

// listReports renders up to maxListedResources lines plus a "more" marker.
func listReports(reports []models.ChangeReport, line func(models.ChangeReport) string) string {
	if len(reports) == 0 {
		return ""
	}
	var lines []string
	for i, rep := range reports {
		if i == maxListedResources {
			lines = append(lines, fmt.Sprintf("• ... and %d more", len(reports)-maxListedResources))
			break
		}
		lines = append(lines, line(rep))
	}
	return strings.Join(lines, "\n")
}

// buildMentions creates mention strings for Discord role IDs
func buildMentions(roleIDs []string) string {
	var mentions []string
	for _, roleID := range roleIDs {
		if roleID != "" {
			mentions = append(mentions, fmt.Sprintf("<@&%s>", roleID))
		}
	}
	return strings.Join(mentions, " ")
}
