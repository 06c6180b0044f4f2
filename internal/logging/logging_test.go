package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/nemonet1337/zaiPipeline/internal/config"
)

func TestNew(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pipeline.log")

	logger, err := New(config.LoggingConfig{Level: "warn", Format: "console", Output: out})
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
