package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw   string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", slog.LevelInfo, false},
		{"loud", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	buf := &bytes.Buffer{}
	logger := New(ProfileRuntime, Options{Writer: buf})
	logger.Debug("hidden")
	logger.Info("shown", "tool", "w_bins")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "tool=w_bins")
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	buf := &bytes.Buffer{}
	logger := New(ProfileRuntime, Options{Writer: buf, Level: "error"})
	logger.Debug("probe")

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"msg":"probe"`)
}

func TestConfigureInstallsDefault(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger := Configure(ProfileVerbose, Options{Writer: buf, Format: "json"})
	assert.Same(t, logger, slog.Default())

	slog.Debug("from default", "tool", "w_succ")
	assert.Contains(t, buf.String(), `"msg":"from default"`)
	assert.Contains(t, buf.String(), `"tool":"w_succ"`)
}

func TestProfileDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	verbose := &bytes.Buffer{}
	New(ProfileVerbose, Options{Writer: verbose}).Debug("shown")
	assert.Contains(t, verbose.String(), "shown")

	runtime := &bytes.Buffer{}
	New(ProfileRuntime, Options{Writer: runtime}).Debug("hidden")
	assert.Empty(t, runtime.String())
}
