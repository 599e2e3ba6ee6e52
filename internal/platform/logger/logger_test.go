package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	log, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, log.SugaredLogger.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, log.SugaredLogger.Desugar().Core().Enabled(zap.WarnLevel))

	_, err = New("development", "loud")
	assert.Error(t, err)
}

func TestRedactsCredentials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.Info("calling backend", "api_key", "sk-123", "bearer_token", "abc", "index", "medical")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["bearer_token"])
	assert.Equal(t, "medical", fields["index"])
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.With("component", "test").Error("ignored", "k", "v")
}
