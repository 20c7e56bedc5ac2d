package zap

import (
	"context"
	"errors"
	"strings"
	"testing"

	logpkg "github.com/LerianStudio/payments-engine/payments/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)

	return &Logger{logger: zap.New(core)}, observed
}

func TestLoggerNilReceiverFallsBackToNop(t *testing.T) {
	t.Parallel()

	var nilLogger *Logger

	assert.NotPanics(t, func() {
		nilLogger.Log(context.Background(), logpkg.LevelInfo, "message")
		_ = nilLogger.With(logpkg.String("k", "v"))
	})
	assert.False(t, nilLogger.Enabled(logpkg.LevelError))
}

func TestLogDispatchesLevels(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.DebugLevel)
	ctx := context.Background()

	logger.Log(ctx, logpkg.LevelDebug, "debug message")
	logger.Log(ctx, logpkg.LevelInfo, "info message", logpkg.Client(7), logpkg.Tx(42))
	logger.Log(ctx, logpkg.LevelWarn, "warn message")
	logger.Log(ctx, logpkg.LevelError, "error message", logpkg.Err(errors.New("boom")))

	entries := observed.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, uint64(7), toUint64(entries[1].ContextMap()["client"]))
	assert.Equal(t, uint64(42), toUint64(entries[1].ContextMap()["tx"]))
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	default:
		return 0
	}
}

func TestLogRespectsLevel(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.WarnLevel)

	logger.Log(context.Background(), logpkg.LevelInfo, "suppressed")
	logger.Log(context.Background(), logpkg.LevelWarn, "kept")

	require.Equal(t, 1, observed.Len())
	assert.Equal(t, "kept", observed.All()[0].Message)
	assert.False(t, logger.Enabled(logpkg.LevelDebug))
	assert.True(t, logger.Enabled(logpkg.LevelError))
}

func TestWithAddsFieldsWithoutMutatingParent(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.DebugLevel)
	child := logger.With(logpkg.String("run_id", "r-1"))

	logger.Log(context.Background(), logpkg.LevelInfo, "parent")
	child.Log(context.Background(), logpkg.LevelInfo, "child")

	entries := observed.All()
	require.Len(t, entries, 2)

	_, parentHasRun := entries[0].ContextMap()["run_id"]
	assert.False(t, parentHasRun)
	assert.Equal(t, "r-1", entries[1].ContextMap()["run_id"])
}

func TestWithGroupNestsFields(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.DebugLevel)
	logger.WithGroup("engine").Log(context.Background(), logpkg.LevelInfo, "grouped", logpkg.Int("accounts", 3))

	entries := observed.All()
	require.Len(t, entries, 1)

	group, ok := entries[0].ContextMap()["engine"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, group["accounts"])
}

func TestLogAppendsTraceCorrelation(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.DebugLevel)

	traceID, err := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.Log(ctx, logpkg.LevelInfo, "correlated")

	fields := observed.All()[0].ContextMap()
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", fields["trace_id"])
	assert.Equal(t, "b7ad6b7169203331", fields["span_id"])
}

func TestSyncHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	logger, _ := newObservedLogger(zapcore.DebugLevel)
	require.NoError(t, logger.Sync(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, logger.Sync(ctx), context.Canceled)
}

func TestConsoleEncodingEscapesControlCharacters(t *testing.T) {
	t.Parallel()

	buf := &strings.Builder{}

	logger, err := New(Config{
		Environment: EnvironmentProduction,
		Encoding:    EncodingConsole,
		Output:      zapcore.AddSync(buf),
	})
	require.NoError(t, err)

	logger.Log(context.Background(), logpkg.LevelInfo, "bad record\nINFO forged entry")

	out := buf.String()
	assert.Contains(t, out, `bad record\nINFO forged entry`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestLevelToZap(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.DebugLevel, logLevelToZap(logpkg.LevelDebug))
	assert.Equal(t, zapcore.InfoLevel, logLevelToZap(logpkg.LevelInfo))
	assert.Equal(t, zapcore.WarnLevel, logLevelToZap(logpkg.LevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, logLevelToZap(logpkg.LevelError))
	assert.Equal(t, zapcore.InfoLevel, logLevelToZap(logpkg.Level(99)))
}
