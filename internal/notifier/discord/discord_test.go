package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordEmbedBuilder_Build(t *testing.T) {
	embed, err := NewDiscordEmbedBuilder().
		WithTitle("Test").
		WithDescription("Description").
		WithTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).
		WithColor(0x00FF00).
		AddField("Changed", "a.test", false).
		AddField("Empty", "", false).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "Test", embed.Title)
	assert.Equal(t, "Description", embed.Description)
	assert.Equal(t, "2026-01-02T03:04:05Z", embed.Timestamp)
	assert.Len(t, embed.Fields, 1, "empty fields are skipped")
}

func TestDiscordEmbedBuilder_TruncatesAndCapsFields(t *testing.T) {
	b := NewDiscordEmbedBuilder().
		WithTitle(strings.Repeat("t", 300)).
		WithDescription(strings.Repeat("d", 5000))
	for i := 0; i < 30; i++ {
		b.AddField("f", strings.Repeat("v", 2000), false)
	}
	embed, err := b.Build()
	require.NoError(t, err)

	assert.Len(t, embed.Title, MaxTitleLength)
	assert.Len(t, embed.Description, MaxDescriptionLength)
	assert.Len(t, embed.Fields, MaxFields)
	assert.Len(t, embed.Fields[0].Value, MaxFieldValueLength)
	assert.True(t, strings.HasSuffix(embed.Fields[0].Value, "..."))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 10) // 2 bytes each
	got := Truncate(s, 8)
	assert.Equal(t, "éé...", got)
	assert.Equal(t, "short", Truncate("short", 10))
}

func TestDiscordEmbedValidator(t *testing.T) {
	v := NewDiscordEmbedValidator()
	err := v.ValidateEmbed(DiscordEmbed{Fields: []DiscordEmbedField{{Name: "", Value: "x"}}})
	var vErr *common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "field_name", vErr.Field)

	assert.NoError(t, v.ValidateEmbed(DiscordEmbed{Title: "ok"}))
}

func TestClient_Send(t *testing.T) {
	var got DiscordMessagePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	payload := NewDiscordMessagePayloadBuilder().
		WithContent("<@&1>").
		WithUsername("pagewatch").
		AddEmbed(DiscordEmbed{Title: "Changes"}).
		Build()

	client := NewClient(server.Client(), zerolog.Nop())
	require.NoError(t, client.Send(context.Background(), server.URL+"/api/webhooks/1/token", payload))
	assert.Equal(t, payload, got)
}

func TestClient_SendFailureHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(nil, zerolog.Nop())
	err := client.Send(context.Background(), server.URL+"/api/webhooks/1/secret-token", DiscordMessagePayload{Content: "x"})

	var httpErr *common.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.NotContains(t, err.Error(), "secret-token")

	assert.Error(t, client.Send(context.Background(), "not a url", DiscordMessagePayload{}))
}
