package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "DEBUG", want: zerolog.DebugLevel},
		{in: "warn", want: zerolog.WarnLevel},
		{in: "loud", want: zerolog.InfoLevel, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("console"))
	assert.Equal(t, FormatConsole, ParseFormat("fancy"))
}

func TestConvertConfig_Defaults(t *testing.T) {
	lc, err := ConvertConfig(config.LogConfig{LogLevel: "error", LogFile: "x.log"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, lc.Level)
	assert.True(t, lc.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, lc.MaxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, lc.MaxBackups)
}

func TestBuilder_JSONConsoleWithRunID(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerBuilder().
		WithConfig(config.LogConfig{LogLevel: "info", LogFormat: "json"}).
		WithConsoleOutput(&buf).
		WithRunID("run-1").
		Build()
	require.NoError(t, err)

	l.GetZerolog().Debug().Msg("hidden")
	l.GetZerolog().Info().Str("component", "Test").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &event))
	assert.Equal(t, "visible", event["message"])
	assert.Equal(t, "run-1", event["run_id"])
	assert.Equal(t, "Test", event["component"])
}

func TestBuilder_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pagewatch.log")
	var console bytes.Buffer

	l, err := NewLoggerBuilder().
		WithConfig(config.LogConfig{LogFile: path, LogFormat: "console"}).
		WithConsoleOutput(&console).
		Build()
	require.NoError(t, err)

	l.GetZerolog().Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.NotContains(t, string(data), "\x1b[", "file output is uncolored")
}

func TestBuilder_InvalidLevel(t *testing.T) {
	_, err := NewLoggerBuilder().WithConfig(config.LogConfig{LogLevel: "shout"}).Build()
	assert.Error(t, err)
}
