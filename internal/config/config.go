package config

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	LogConfig             LogConfig             `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig         MonitorConfig         `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	FetchConfig           FetchConfig           `json:"fetch_config,omitempty" yaml:"fetch_config,omitempty"`
	BrowserConfig         BrowserConfig         `json:"browser_config,omitempty" yaml:"browser_config,omitempty"`
	SnapshotConfig        SnapshotConfig        `json:"snapshot_config,omitempty" yaml:"snapshot_config,omitempty"`
	HistoryConfig         HistoryConfig         `json:"history_config,omitempty" yaml:"history_config,omitempty"`
	NotificationConfig    NotificationConfig    `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	ResourceLimiterConfig ResourceLimiterConfig `json:"resource_limiter_config,omitempty" yaml:"resource_limiter_config,omitempty"`
	Resources             []ResourceConfig      `json:"resources,omitempty" yaml:"resources,omitempty" validate:"dive"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:             NewDefaultLogConfig(),
		MonitorConfig:         NewDefaultMonitorConfig(),
		FetchConfig:           NewDefaultFetchConfig(),
		BrowserConfig:         NewDefaultBrowserConfig(),
		SnapshotConfig:        NewDefaultSnapshotConfig(),
		HistoryConfig:         NewDefaultHistoryConfig(),
		NotificationConfig:    NewDefaultNotificationConfig(),
		ResourceLimiterConfig: NewDefaultResourceLimiterConfig(),
		Resources:             []ResourceConfig{},
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// Unset fields keep their defaults. YAML is used for .yaml/.yml files, JSON otherwise.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	fileManager := common.NewFileManager(logger)
	if !fileManager.FileExists(filePath) {
		return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
	}

	data, err := loadConfigFileContent(fileManager, filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Int("resources", len(cfg.Resources)).Msg("Configuration loaded")
	return cfg, nil
}

// SaveGlobalConfig writes cfg to path, as YAML or JSON depending on the extension.
func SaveGlobalConfig(cfg *GlobalConfig, path string, logger zerolog.Logger) error {
	var (
		data []byte
		err  error
	)
	if isYAMLFile(filepath.Ext(path)) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return common.WrapError(err, "failed to marshal configuration")
	}
	return common.NewFileManager(logger).WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func loadConfigFileContent(fileManager *common.FileManager, filePath string) ([]byte, error) {
	opts := common.DefaultFileReadOptions()
	opts.MaxSize = 10 * 1024 * 1024 // 10MB max config file size

	return fileManager.ReadFile(filePath, opts)
}

func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
