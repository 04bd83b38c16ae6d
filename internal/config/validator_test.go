package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *GlobalConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *GlobalConfig) {},
		},
		{
			name:    "unknown log level",
			mutate:  func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "verbose" },
			wantErr: "loglevel",
		},
		{
			name:    "unknown transport",
			mutate:  func(cfg *GlobalConfig) { cfg.FetchConfig.Transport = "ftp" },
			wantErr: "transport",
		},
		{
			name:    "unknown corrupt policy",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.OnCorruptStore = "ignore" },
			wantErr: "corruptpolicy",
		},
		{
			name:    "unknown notify trigger",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.NotifyWhen = "sometimes" },
			wantErr: "notifywhen",
		},
		{
			name:    "zero workers",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.MaxConcurrentChecks = -1 },
			wantErr: "MaxConcurrentChecks",
		},
		{
			name:    "empty store path",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.StorePath = "" },
			wantErr: "StorePath",
		},
		{
			name: "resource without id",
			mutate: func(cfg *GlobalConfig) {
				cfg.Resources = []ResourceConfig{{URL: "https://a.test"}}
			},
			wantErr: "ID",
		},
		{
			name: "bad content type hint",
			mutate: func(cfg *GlobalConfig) {
				cfg.Resources = []ResourceConfig{{ID: "a", ContentType: "pdf"}}
			},
			wantErr: "contenttype",
		},
		{
			name: "duplicate resource ids",
			mutate: func(cfg *GlobalConfig) {
				cfg.Resources = []ResourceConfig{{ID: "a.test"}, {ID: "b.test"}, {ID: "a.test"}}
			},
			wantErr: "Duplicate resource id 'a.test'",
		},
		{
			name: "email enabled without recipients",
			mutate: func(cfg *GlobalConfig) {
				cfg.NotificationConfig.Email.Enabled = true
				cfg.NotificationConfig.Email.SMTPHost = "smtp.test"
				cfg.NotificationConfig.Email.SenderEmail = "bot@example.com"
			},
			wantErr: "Recipients",
		},
		{
			name: "email enabled without host",
			mutate: func(cfg *GlobalConfig) {
				cfg.NotificationConfig.Email.Enabled = true
				cfg.NotificationConfig.Email.SenderEmail = "bot@example.com"
				cfg.NotificationConfig.Email.Recipients = []string{"me@example.com"}
			},
			wantErr: "SMTPHost",
		},
		{
			name:    "bad webhook url",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.DiscordWebhookURL = "not a url" },
			wantErr: "DiscordWebhookURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	assert.Error(t, ValidateConfig(nil))
}
