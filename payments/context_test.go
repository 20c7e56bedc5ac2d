package payments

import (
	"context"
	"testing"

	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()

	assert.IsType(t, &log.NopLogger{}, NewLoggerFromContext(context.Background()))

	logger := &log.NopLogger{}
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, NewLoggerFromContext(ctx))
}

func TestTracerFromContext(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, NewTracerFromContext(context.Background()))

	tracer := noop.NewTracerProvider().Tracer("test")
	ctx := ContextWithTracer(context.Background(), tracer)
	assert.Equal(t, tracer, NewTracerFromContext(ctx))
}

func TestMetricFactoryFromContext(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, NewMetricFactoryFromContext(context.Background()))

	factory := metrics.NewNopFactory()
	ctx := ContextWithMetricFactory(context.Background(), factory)
	assert.Same(t, factory, NewMetricFactoryFromContext(ctx))
}

func TestContextValuesAccumulateWithoutMutatingParent(t *testing.T) {
	t.Parallel()

	logger := &log.NopLogger{}
	parent := ContextWithRunID(context.Background(), "run-1")
	child := ContextWithLogger(parent, logger)

	assert.Equal(t, "run-1", RunIDFromContext(child))
	assert.Same(t, logger, NewLoggerFromContext(child))
	assert.IsType(t, &log.NopLogger{}, NewLoggerFromContext(parent))
	assert.NotSame(t, logger, NewLoggerFromContext(parent))
	assert.Empty(t, RunIDFromContext(context.Background()))
}

func TestNewRunID(t *testing.T) {
	t.Parallel()

	first, err := uuid.Parse(NewRunID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), first.Version())

	assert.NotEqual(t, NewRunID(), NewRunID())
}
