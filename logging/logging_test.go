package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Dev)
	assert.Equal(t, "debug", cfg.Level)

	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_LEVEL", "warn")
	cfg = ConfigFromEnv()
	assert.False(t, cfg.Dev)
	assert.Equal(t, zapcore.WarnLevel, levelFromString(cfg.Level))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("chatty"))
}

func TestInit_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onboarding.log")
	l, err := Init(Config{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Info("merchant persisted", zap.String("merchantId", "M-1"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"merchantId":"M-1"`)
}

func TestTemporalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tl := NewTemporalLogger(zap.New(core))

	tl.Info("Onboarding event applied", "sessionId", "sess-1", "currentStep", 2)
	tl.With("workflow", "onboarding").Warn("Onboarding event rejected", "kind", "teleport")
	tl.Debug("debug line")
	tl.Error("boom")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "sess-1", entries[0].ContextMap()["sessionId"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["currentStep"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "onboarding", entries[1].ContextMap()["workflow"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}
