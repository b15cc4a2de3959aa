package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.enabled-1))
		})
	}
}

func TestNew_None(t *testing.T) {
	l, err := New(LevelNone)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.FatalLevel))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)
}
