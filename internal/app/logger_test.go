package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/coral-backend/internal/config"
)

func TestNewLogger_JSONCarriesScanFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "info", Format: "JSON"})

	logger.Info("scan finished", slog.String("username", "alice"), slog.Int("found", 3))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "scan finished", m["msg"])
	assert.Equal(t, "alice", m["username"])
	assert.EqualValues(t, 3, m["found"])
	_, hasSource := m["source"]
	assert.False(t, hasSource, "json output should not carry source")
}

func TestNewLogger_TextAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "debug", Format: "text"})

	logger.Debug("catalog entry", slog.String("site", "GitHub"))

	out := buf.String()
	assert.Contains(t, out, "source=")
	assert.Contains(t, out, "site=GitHub")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, config.LogConfig{Level: tt.level, Format: "json"})

			logger.Log(context.Background(), tt.want-1, "suppressed")
			assert.Zero(t, buf.Len(), "level %v should suppress %v", tt.want, tt.want-1)

			logger.Log(context.Background(), tt.want, "kept")
			assert.NotZero(t, buf.Len())
		})
	}
}

// Not parallel: NewLogger replaces the process-wide default.
func TestNewLogger_TagsBinaryAndSetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(config.LogConfig{Level: "error", Format: "json"}, "coral-check")

	assert.Equal(t, logger.Handler(), slog.Default().Handler())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestBuildAttr(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Format: "json"}).Info("starting", buildAttr())

	var m struct {
		Build map[string]string `json:"build"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, Version, m.Build["version"])
	assert.Equal(t, Commit, m.Build["commit"])
	assert.Equal(t, BuildTime, m.Build["time"])
}
