package discord

import (
	"fmt"

	"github.com/aleister1102/pagewatch/internal/common"
)

// DiscordEmbedValidator validates Discord embed objects
type DiscordEmbedValidator struct{}

// NewDiscordEmbedValidator creates a new embed validator
func NewDiscordEmbedValidator() *DiscordEmbedValidator {
	return &DiscordEmbedValidator{}
}

// ValidateEmbed validates a Discord embed
func (dev *DiscordEmbedValidator) ValidateEmbed(embed DiscordEmbed) error {
	if len(embed.Title) > MaxTitleLength {
		return common.NewValidationError("title", embed.Title, "title cannot exceed 256 characters")
	}
	if len(embed.Description) > MaxDescriptionLength {
		return common.NewValidationError("description", len(embed.Description), "description cannot exceed 4096 characters")
	}
	if len(embed.Fields) > MaxFields {
		return common.NewValidationError("fields", len(embed.Fields), "cannot have more than 25 fields")
	}

	for i, field := range embed.Fields {
		if field.Name == "" {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot be empty", i))
		}
		if field.Value == "" {
			return common.NewValidationError("field_value", field.Value, fmt.Sprintf("field %d value cannot be empty", i))
		}
		if len(field.Name) > MaxFieldNameLength {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot exceed 256 characters", i))
		}
		if len(field.Value) > MaxFieldValueLength {
			return common.NewValidationError("field_value", len(field.Value), fmt.Sprintf("field %d value cannot exceed 1024 characters", i))
		}
	}

	if embed.Footer != nil && len(embed.Footer.Text) > MaxFooterLength {
		return common.NewValidationError("footer_text", len(embed.Footer.Text), "footer text cannot exceed 2048 characters")
	}
	return nil
}
