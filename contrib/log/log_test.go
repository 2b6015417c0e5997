package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMergesKeyvals(t *testing.T) {
	var captured []any
	recorder := &recordingLogger{onLog: func(level Level, kvs ...any) { captured = kvs }}

	logger := With(recorder, "service", "relay")
	require.NoError(t, logger.Log(LevelInfo, DefaultMessageKey, "hello"))

	assert.Equal(t, []any{"service", "relay", DefaultMessageKey, "hello"}, captured)
}

func TestContextAttachesTraceID(t *testing.T) {
	var captured []any
	recorder := &recordingLogger{onLog: func(level Level, kvs ...any) { captured = kvs }}
	SetLogger(recorder)
	defer SetLogger(DefaultLogger)

	ctx := ContextWithTraceID(context.Background(), "abc-123")
	helper := Context(ctx)
	helper.Info("connected")

	assert.Contains(t, captured, "trace_id")
	assert.Contains(t, captured, "abc-123")
}

func TestEnabledRespectsLevel(t *testing.T) {
	logger := NewZapLogger("", LevelError, 0, 0, 0, false)
	assert.False(t, logger.Enabled(LevelDebug))
	assert.True(t, logger.Enabled(LevelError))
}

type recordingLogger struct {
	onLog func(level Level, kvs ...any)
}

func (r *recordingLogger) Log(level Level, keyvals ...any) error {
	r.onLog(level, keyvals...)
	return nil
}

func (r *recordingLogger) Enabled(Level) bool { return true }
