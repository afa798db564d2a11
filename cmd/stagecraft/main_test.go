package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/stagecraft/internal/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			log, err := newLogger(config.LoggingConfig{Level: "warn", Format: format})
			require.NoError(t, err)
			require.True(t, log.Core().Enabled(zapcore.WarnLevel))
			require.False(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}

	_, err := newLogger(config.LoggingConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
}
