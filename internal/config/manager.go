package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ManagerOptions holds options for creating a Manager
type ManagerOptions struct {
	Logger           zerolog.Logger
	HotReloadEnabled bool
	ReloadDelay      time.Duration
	// Targets are extra resources merged after the configured ones on every load.
	Targets []string
}

// DefaultManagerOptions returns default options for Manager
func DefaultManagerOptions() ManagerOptions {
	return ManagerOptions{
		Logger:           zerolog.Nop(),
		HotReloadEnabled: false,
		ReloadDelay:      time.Second * 2,
	}
}

// Manager holds the current validated configuration and optionally reloads it
// when the config file changes on disk.
type Manager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	targets      []string
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	stopOnce     sync.Once
	stopChan     chan struct{}
	lastModified time.Time

	hotReloadEnabled bool
	reloadDelay      time.Duration
}

// NewManager loads and validates the configuration at configPath.
func NewManager(configPath string, opts ManagerOptions) (*Manager, error) {
	cm := &Manager{
		configPath:       configPath,
		targets:          opts.Targets,
		logger:           opts.Logger.With().Str("component", "ConfigManager").Logger(),
		stopChan:         make(chan struct{}),
		hotReloadEnabled: opts.HotReloadEnabled,
		reloadDelay:      opts.ReloadDelay,
	}
	if cm.reloadDelay <= 0 {
		cm.reloadDelay = DefaultManagerOptions().ReloadDelay
	}

	if err := cm.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	if cm.hotReloadEnabled {
		if cm.configPath == "" {
			cm.logger.Warn().Msg("No config file in use, hot-reload disabled")
			cm.hotReloadEnabled = false
		} else if err := cm.setupFileWatcher(); err != nil {
			cm.logger.Warn().Err(err).Msg("Failed to setup file watcher, hot-reload disabled")
			cm.hotReloadEnabled = false
		}
	}

	return cm, nil
}

// GetConfig returns a copy of the current configuration
func (cm *Manager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return copyConfig(cm.config)
}

// ConfigPath returns the resolved configuration file path, empty when defaults are used.
func (cm *Manager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// IsHotReloadEnabled returns whether hot-reload is enabled
func (cm *Manager) IsHotReloadEnabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.hotReloadEnabled
}

// ReloadConfig reloads the configuration from file. On failure the previous
// configuration stays in effect.
func (cm *Manager) ReloadConfig() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.loadConfig()
}

// StartHotReload starts the hot-reload goroutine (non-blocking)
func (cm *Manager) StartHotReload(ctx context.Context) {
	if !cm.IsHotReloadEnabled() {
		return
	}
	go cm.hotReloadLoop(ctx)
}

// Close stops the hot-reload loop and the file watcher
func (cm *Manager) Close() error {
	var err error
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
		if cm.watcher != nil {
			err = cm.watcher.Close()
		}
	})
	return err
}

// loadConfig assumes the write lock is held (or that the manager is not shared yet).
func (cm *Manager) loadConfig() error {
	cfg, err := LoadGlobalConfig(cm.configPath, cm.logger)
	if err != nil {
		return err
	}
	cfg.Resources = MergeTargets(cfg.Resources, cm.targets)

	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	cm.configPath = GetConfigPath(cm.configPath)
	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}

	cm.config = cfg
	cm.logger.Debug().Str("path", cm.configPath).Int("resources", len(cfg.Resources)).Msg("Configuration loaded successfully")
	return nil
}

func (cm *Manager) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace the file, so the directory is watched rather than the file.
	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", configDir, err)
	}

	cm.watcher = watcher
	cm.logger.Info().Str("directory", configDir).Msg("File watcher setup for hot-reload")
	return nil
}

func (cm *Manager) hotReloadLoop(ctx context.Context) {
	reloadTimer := time.NewTimer(0)
	if !reloadTimer.Stop() {
		<-reloadTimer.C
	}
	target := filepath.Clean(cm.ConfigPath())

	for {
		select {
		case <-ctx.Done():
			return
		case <-cm.stopChan:
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == target && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				cm.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Config file change detected")
				reloadTimer.Reset(cm.reloadDelay)
			}

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")

		case <-reloadTimer.C:
			stat, err := os.Stat(target)
			if err != nil {
				continue
			}
			cm.mu.RLock()
			changed := stat.ModTime().After(cm.lastModified)
			cm.mu.RUnlock()
			if !changed {
				continue
			}
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous one")
				continue
			}
			cm.logger.Info().Str("path", target).Msg("Configuration reloaded")
		}
	}
}

func copyConfig(src *GlobalConfig) *GlobalConfig {
	if src == nil {
		return NewDefaultGlobalConfig()
	}
	dst := *src
	dst.Resources = append([]ResourceConfig(nil), src.Resources...)
	dst.FetchConfig.RetryStatusCodes = append([]int(nil), src.FetchConfig.RetryStatusCodes...)
	dst.NotificationConfig.MentionRoleIDs = append([]string(nil), src.NotificationConfig.MentionRoleIDs...)
	dst.NotificationConfig.Email.Recipients = append([]string(nil), src.NotificationConfig.Email.Recipients...)
	return &dst
}
