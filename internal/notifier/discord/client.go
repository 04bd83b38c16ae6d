package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
)

// Client posts payloads to Discord webhooks.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a webhook client; a nil httpClient gets a 20s timeout.
func NewClient(httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "DiscordClient").Logger(),
	}
}

// Send posts payload as JSON to webhookURL.
func (c *Client) Send(ctx context.Context, webhookURL string, payload DiscordMessagePayload) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid Discord webhook URL: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewNetworkError(redact(webhookURL), "post discord webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return common.NewHTTPError(redact(webhookURL), resp.StatusCode, string(respBody))
	}

	c.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}

// redact hides the webhook token, which is a credential.
func redact(webhookURL string) string {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
