package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "loud", want: LevelInfo, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core, LevelInfo)

	logger.Debug("hidden")
	logger.Info("shown", String("k", "v"), Int("n", 3))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "shown", entry.Message)
	assert.Equal(t, "v", entry.ContextMap()["k"])
	assert.Equal(t, int64(3), entry.ContextMap()["n"])

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
	logger.Debug("now shown")
	assert.Equal(t, 2, logs.Len())
}

func TestLoggerWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core, LevelDebug).With(String("component", "terrain"))

	logger.Warn("careful", Duration("took", time.Second), Error(errors.New("boom")), Bool("ok", false))
	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "terrain", ctx["component"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, time.Second, ctx["took"])
}

func TestNopAndProvide(t *testing.T) {
	nop := NewNop()
	nop.Info("discarded")
	assert.NotNil(t, Provide())
}
