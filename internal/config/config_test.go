package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, DefaultMonitorStorePath, cfg.MonitorConfig.StorePath)
	assert.Equal(t, DefaultMonitorMaxConcurrentChecks, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, CorruptPolicyFail, cfg.MonitorConfig.OnCorruptStore)
	assert.Equal(t, TransportHTTP, cfg.FetchConfig.Transport)
	assert.Equal(t, NotifyWhenChanges, cfg.NotificationConfig.NotifyWhen)
	assert.Empty(t, cfg.Resources)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NoConfigFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	chdir(t, t.TempDir())

	cfg, err := LoadGlobalConfig("", zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, DefaultMonitorStorePath, cfg.MonitorConfig.StorePath)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())

	assert.Nil(t, cfg)
	var vErr *common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{
		"log_config": {"log_level": "debug"},
		"fetch_config": {"user_agent": "test-agent", "transport": "colly"},
		"resources": [{"id": "https://a.test", "content_type": "html"}]
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, "test-agent", cfg.FetchConfig.UserAgent)
	assert.Equal(t, TransportColly, cfg.FetchConfig.Transport)
	assert.Equal(t, DefaultFetchTimeoutSeconds, cfg.FetchConfig.TimeoutSeconds, "unset fields keep defaults")
	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, "https://a.test", cfg.Resources[0].EffectiveURL())
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
monitor_config:
  store_path: /tmp/fp.tsv
  max_concurrent_checks: 2
  incremental_persist: true
resources:
  - id: docs
    url: https://docs.test/page
    selector: "#main"
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "/tmp/fp.tsv", cfg.MonitorConfig.StorePath)
	assert.Equal(t, 2, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.True(t, cfg.MonitorConfig.IncrementalPersist)
	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, "https://docs.test/page", cfg.Resources[0].EffectiveURL())
	assert.Equal(t, "#main", cfg.Resources[0].Selector)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("monitor_config: [unclosed"), 0644))

	_, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	cfg := NewDefaultGlobalConfig()
	cfg.Resources = []ResourceConfig{{ID: "https://a.test"}}

	require.NoError(t, SaveGlobalConfig(cfg, path, zerolog.Nop()))

	loaded, err := LoadGlobalConfig(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, cfg.Resources, loaded.Resources)
	assert.Equal(t, cfg.MonitorConfig, loaded.MonitorConfig)
}

func TestGetConfigPath_Priority(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	envFile := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("{}"), 0644))
	cwdFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cwdFile, []byte("{}"), 0644))
	flagFile := filepath.Join(t.TempDir(), "flag.yaml")
	require.NoError(t, os.WriteFile(flagFile, []byte("{}"), 0644))

	t.Setenv(ConfigPathEnv, envFile)
	assert.Equal(t, flagFile, GetConfigPath(flagFile))
	assert.Equal(t, envFile, GetConfigPath(""))
	assert.Equal(t, "", GetConfigPath(filepath.Join(dir, "missing.yaml")))

	t.Setenv(ConfigPathEnv, "")
	got, err := filepath.EvalSymlinks(GetConfigPath(""))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(cwdFile)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMergeTargets(t *testing.T) {
	resources := []ResourceConfig{{ID: "a.test"}, {ID: "b.test", Selector: "main"}}

	merged := MergeTargets(resources, []string{"b.test", " c.test ", "", "c.test"})

	require.Len(t, merged, 3)
	assert.Equal(t, "main", merged[1].Selector, "configured entry wins over target duplicate")
	assert.Equal(t, "c.test", merged[2].ID)
}

func TestMergeTargets_KeepsRepeatedConfigIDs(t *testing.T) {
	resources := []ResourceConfig{
		{ID: "a", URL: "https://one.test"},
		{ID: "a", URL: "https://two.test"},
	}

	merged := MergeTargets(resources, []string{"a"})

	require.Len(t, merged, 2)
	assert.Equal(t, "https://two.test", merged[1].URL)
	cfg := NewDefaultGlobalConfig()
	cfg.Resources = merged
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicate resource id 'a'")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
