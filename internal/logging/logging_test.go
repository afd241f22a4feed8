package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Mur0dDev/Classification-Bot/internal/config"
)

func TestNewHonorsLevel(t *testing.T) {
	log, done, err := New(config.LogConfig{Level: "warn", Format: "json", Service: "classifier"})
	require.NoError(t, err)
	defer done()

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWithGelfSink(t *testing.T) {
	log, done, err := New(config.LogConfig{Level: "debug", Format: "console", GelfAddr: "127.0.0.1:12201", Service: "classifier"})
	require.NoError(t, err)
	defer done()
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
