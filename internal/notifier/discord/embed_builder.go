package discord

import (
	"time"
)

// DiscordEmbedBuilder helps in constructing DiscordEmbed objects. Values
// longer than Discord accepts are truncated rather than rejected.
type DiscordEmbedBuilder struct {
	embed     DiscordEmbed
	validator *DiscordEmbedValidator
}

// NewDiscordEmbedBuilder creates a new Discord embed builder
func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{
		validator: NewDiscordEmbedValidator(),
	}
}

// WithTitle sets the embed title
func (deb *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	deb.embed.Title = Truncate(title, MaxTitleLength)
	return deb
}

// WithDescription sets the embed description
func (deb *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	deb.embed.Description = Truncate(description, MaxDescriptionLength)
	return deb
}

// WithURL sets the embed URL
func (deb *DiscordEmbedBuilder) WithURL(url string) *DiscordEmbedBuilder {
	deb.embed.URL = url
	return deb
}

// WithTimestamp sets the embed timestamp
func (deb *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	deb.embed.Timestamp = timestamp.UTC().Format(time.RFC3339)
	return deb
}

// WithColor sets the embed color
func (deb *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	deb.embed.Color = color
	return deb
}

// WithFooter sets the embed footer
func (deb *DiscordEmbedBuilder) WithFooter(text, iconURL string) *DiscordEmbedBuilder {
	deb.embed.Footer = &DiscordEmbedFooter{Text: Truncate(text, MaxFooterLength), IconURL: iconURL}
	return deb
}

// AddField adds a field to the embed. Empty values are skipped and fields
// beyond the Discord maximum are dropped.
func (deb *DiscordEmbedBuilder) AddField(name, value string, inline bool) *DiscordEmbedBuilder {
	if name == "" || value == "" || len(deb.embed.Fields) >= MaxFields {
		return deb
	}
	deb.embed.Fields = append(deb.embed.Fields, DiscordEmbedField{
		Name:   Truncate(name, MaxFieldNameLength),
		Value:  Truncate(value, MaxFieldValueLength),
		Inline: inline,
	})
	return deb
}

// Build validates and returns the embed.
func (deb *DiscordEmbedBuilder) Build() (DiscordEmbed, error) {
	if err := deb.validator.ValidateEmbed(deb.embed); err != nil {
		return DiscordEmbed{}, err
	}
	return deb.embed, nil
}

// DiscordMessagePayloadBuilder helps in constructing DiscordMessagePayload objects.
type DiscordMessagePayloadBuilder struct {
	payload DiscordMessagePayload
}

// NewDiscordMessagePayloadBuilder creates a new instance of DiscordMessagePayloadBuilder.
func NewDiscordMessagePayloadBuilder() *DiscordMessagePayloadBuilder {
	return &DiscordMessagePayloadBuilder{}
}

// WithContent sets the message text shown above the embeds.
func (b *DiscordMessagePayloadBuilder) WithContent(content string) *DiscordMessagePayloadBuilder {
	b.payload.Content = Truncate(content, MaxContentLength)
	return b
}

// WithUsername overrides the webhook username.
func (b *DiscordMessagePayloadBuilder) WithUsername(username string) *DiscordMessagePayloadBuilder {
	b.payload.Username = username
	return b
}

// AddEmbed appends an embed.
func (b *DiscordMessagePayloadBuilder) AddEmbed(embed DiscordEmbed) *DiscordMessagePayloadBuilder {
	b.payload.Embeds = append(b.payload.Embeds, embed)
	return b
}

// Build returns the constructed payload.
func (b *DiscordMessagePayloadBuilder) Build() DiscordMessagePayload {
	return b.payload
}
