package config

// NotificationConfig defines configuration for notifications
type NotificationConfig struct {
	NotifyWhen        string      `json:"notify_when,omitempty" yaml:"notify_when,omitempty" validate:"omitempty,notifywhen"`
	DiscordWebhookURL string      `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	MentionRoleIDs    []string    `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty"`
	TimeoutSeconds    int         `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Email             EmailConfig `json:"email,omitempty" yaml:"email,omitempty"`
}

// EmailConfig defines SMTP delivery of change notifications
type EmailConfig struct {
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	SMTPHost      string   `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty" validate:"required_if=Enabled true"`
	SMTPPort      int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username      string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string   `json:"password,omitempty" yaml:"password,omitempty"`
	SenderEmail   string   `json:"sender_email,omitempty" yaml:"sender_email,omitempty" validate:"omitempty,email"`
	SenderName    string   `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
	Recipients    []string `json:"recipients,omitempty" yaml:"recipients,omitempty" validate:"omitempty,dive,email"`
	SubjectPrefix string   `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		NotifyWhen:     DefaultNotifyWhen,
		MentionRoleIDs: []string{},
		TimeoutSeconds: DefaultNotifierTimeout,
		Email: EmailConfig{
			SMTPPort:      DefaultSMTPPort,
			SubjectPrefix: DefaultEmailSubject,
		},
	}
}
