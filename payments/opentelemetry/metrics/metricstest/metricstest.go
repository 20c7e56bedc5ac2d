// Package metricstest builds metrics factories backed by an in-memory reader
// and reads recorded values back for assertions.
package metricstest

import (
	"context"
	"testing"

	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// NewFactory returns a factory whose instruments are collected by reader.
func NewFactory(t testing.TB) (*metrics.MetricsFactory, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	factory, err := metrics.NewMetricsFactory(provider.Meter("test"), log.NewNop())
	require.NoError(t, err)

	return factory, reader
}

// Collect exports everything recorded so far.
func Collect(t testing.TB, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

// Find returns the named metric, or nil.
func Find(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}

	return nil
}

// CounterValue sums the data points of the named counter whose attributes
// include every pair in match. A missing metric counts as zero.
func CounterValue(t testing.TB, rm metricdata.ResourceMetrics, name string, match ...attribute.KeyValue) int64 {
	t.Helper()

	m := Find(rm, name)
	if m == nil {
		return 0
	}

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] data, got %T", m.Data)

	var total int64

	for _, dp := range sum.DataPoints {
		if HasAttributes(dp.Attributes, match...) {
			total += dp.Value
		}
	}

	return total
}

// HasAttributes reports whether set contains every pair in match.
func HasAttributes(set attribute.Set, match ...attribute.KeyValue) bool {
	for _, kv := range match {
		v, ok := set.Value(kv.Key)
		if !ok || v.Type() != kv.Value.Type() || v.Emit() != kv.Value.Emit() {
			return false
		}
	}

	return true
}
