package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys attached to engine metrics.
const (
	AttrEventType    = attribute.Key("event.type")
	AttrRejectCode   = attribute.Key("rejection.code")
	AttrOutputFormat = attribute.Key("output.format")
	AttrComponent    = attribute.Key("component")
	AttrAssertion    = attribute.Key("assertion")
)

func (f *MetricsFactory) add(ctx context.Context, m Metric, attrs ...attribute.KeyValue) error {
	b, err := f.Counter(m)
	if err != nil {
		return err
	}

	return b.WithAttributes(attrs...).AddOne(ctx)
}

// RecordEventProcessed counts an applied event of the given type.
func (f *MetricsFactory) RecordEventProcessed(ctx context.Context, eventType string) error {
	return f.add(ctx, MetricEventsProcessed, AttrEventType.String(eventType))
}

// RecordEventRejected counts a dropped event by type and rejection code.
func (f *MetricsFactory) RecordEventRejected(ctx context.Context, eventType, code string) error {
	return f.add(ctx, MetricEventsRejected, AttrEventType.String(eventType), AttrRejectCode.String(code))
}

func (f *MetricsFactory) RecordAccountCreated(ctx context.Context) error {
	return f.add(ctx, MetricAccountsCreated)
}

func (f *MetricsFactory) RecordAccountLocked(ctx context.Context) error {
	return f.add(ctx, MetricAccountsLocked)
}

func (f *MetricsFactory) RecordDisputeOpened(ctx context.Context) error {
	return f.add(ctx, MetricDisputesOpened)
}

// RecordAssertionFailed counts a failed invariant check.
func (f *MetricsFactory) RecordAssertionFailed(ctx context.Context, component, assertion string) error {
	return f.add(ctx, MetricAssertionFailed, AttrComponent.String(component), AttrAssertion.String(assertion))
}

// RecordRunFinished records the run duration and the final account count.
func (f *MetricsFactory) RecordRunFinished(ctx context.Context, elapsed time.Duration, accounts int, attrs ...attribute.KeyValue) error {
	h, err := f.Histogram(MetricRunDuration)
	if err != nil {
		return err
	}

	if err := h.WithAttributes(attrs...).Record(ctx, elapsed.Milliseconds()); err != nil {
		return err
	}

	g, err := f.Gauge(MetricOpenAccounts)
	if err != nil {
		return err
	}

	return g.WithAttributes(attrs...).Set(ctx, int64(accounts))
}

// RecordChunkDecoded records the number of events one decode chunk produced.
func (f *MetricsFactory) RecordChunkDecoded(ctx context.Context, events int) error {
	h, err := f.Histogram(MetricChunkEvents)
	if err != nil {
		return err
	}

	return h.Record(ctx, int64(events))
}
