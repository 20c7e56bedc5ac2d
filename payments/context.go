package payments

import (
	"context"

	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used when no tracer is in context.
const TracerName = "github.com/LerianStudio/payments-engine"

type customContextKey string

// CustomContextKey is the context key used to store CustomContextKeyValue.
var CustomContextKey = customContextKey("payments_context")

// CustomContextKeyValue holds the facilities attached to a run's context.
type CustomContextKeyValue struct {
	RunID         string
	Tracer        trace.Tracer
	Logger        log.Logger
	MetricFactory *metrics.MetricsFactory
}

// values returns a copy of the container in ctx, so derived contexts never
// modify their parent's values.
func values(ctx context.Context) CustomContextKeyValue {
	if v, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && v != nil {
		return *v
	}

	return CustomContextKeyValue{}
}

func with(ctx context.Context, update func(*CustomContextKeyValue)) context.Context {
	v := values(ctx)
	update(&v)

	return context.WithValue(ctx, CustomContextKey, &v)
}

// ContextWithLogger returns a context carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	return with(ctx, func(v *CustomContextKeyValue) { v.Logger = logger })
}

// NewLoggerFromContext returns the logger in ctx, or a no-op logger.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if logger := values(ctx).Logger; logger != nil {
		return logger
	}

	return log.NewNop()
}

// ContextWithTracer returns a context carrying tracer.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	return with(ctx, func(v *CustomContextKeyValue) { v.Tracer = tracer })
}

// NewTracerFromContext returns the tracer in ctx, or the global provider's tracer.
//
//nolint:ireturn
func NewTracerFromContext(ctx context.Context) trace.Tracer {
	if tracer := values(ctx).Tracer; tracer != nil {
		return tracer
	}

	return otel.Tracer(TracerName)
}

// ContextWithMetricFactory returns a context carrying factory.
func ContextWithMetricFactory(ctx context.Context, factory *metrics.MetricsFactory) context.Context {
	return with(ctx, func(v *CustomContextKeyValue) { v.MetricFactory = factory })
}

// NewMetricFactoryFromContext returns the factory in ctx, or a no-op factory.
func NewMetricFactoryFromContext(ctx context.Context) *metrics.MetricsFactory {
	if factory := values(ctx).MetricFactory; factory != nil {
		return factory
	}

	return metrics.NewNopFactory()
}

// ContextWithRunID returns a context carrying the id of the current run.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return with(ctx, func(v *CustomContextKeyValue) { v.RunID = runID })
}

// RunIDFromContext returns the run id in ctx, or "" when none was set.
func RunIDFromContext(ctx context.Context) string {
	return values(ctx).RunID
}

// NewRunID returns a time-ordered UUIDv7, falling back to a random UUIDv4.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
