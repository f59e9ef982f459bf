package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.WithField("user_id", "u1").
		WithFields(map[string]any{"broker": "Spokeo", "adapter": "spokeo"}).
		Info("Broker processed", "status", "in_progress")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Broker processed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "u1", ctx["user_id"])
	assert.Equal(t, "Spokeo", ctx["broker"])
	assert.Equal(t, "spokeo", ctx["adapter"])
	assert.Equal(t, "in_progress", ctx["status"])
}

func TestLoggerAdapter_Levels(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := FromZap(zap.New(core))

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown too")

	assert.Equal(t, 2, logs.Len())
}

func TestNewLoggerAdapter_BadLevel(t *testing.T) {
	_, err := NewLoggerAdapter(Config{Level: "loud"})
	assert.Error(t, err)
}
