// Package assert checks ledger invariants at runtime. A failed check is
// logged, counted, recorded on the active span and returned as an
// *AssertionError, which callers treat as a structural failure.
package assert

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanEventName is the span event added for every failed assertion.
const SpanEventName = "assertion.failed"

const (
	maxValueLength = 200
	missingValue   = "MISSING_VALUE"
)

// ErrAssertionFailed is the sentinel error for failed assertions.
var ErrAssertionFailed = errors.New("assertion failed")

// AssertionError represents a failed assertion with its context.
type AssertionError struct {
	Assertion string
	Message   string
	Component string
	Details   string
}

func (entry *AssertionError) Error() string {
	if entry == nil {
		return ErrAssertionFailed.Error()
	}

	if entry.Details == "" {
		return "assertion failed: " + entry.Message
	}

	return "assertion failed: " + entry.Message + " (" + entry.Details + ")"
}

// Unwrap returns ErrAssertionFailed for errors.Is.
func (entry *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

// Asserter evaluates invariants for one component.
type Asserter struct {
	logger    log.Logger
	metrics   *metrics.MetricsFactory
	component string
}

// New creates an Asserter. Nil logger and factory are replaced by no-ops.
func New(logger log.Logger, factory *metrics.MetricsFactory, component string) *Asserter {
	if logger == nil {
		logger = log.NewNop()
	}

	if factory == nil {
		factory = metrics.NewNopFactory()
	}

	return &Asserter{logger: logger, metrics: factory, component: component}
}

// That returns an error if ok is false. kv holds alternating keys and values
// describing the failure.
func (a *Asserter) That(ctx context.Context, ok bool, msg string, kv ...any) error {
	if ok {
		return nil
	}

	return a.fail(ctx, "That", msg, kv...)
}

// NoError returns an error wrapping err if err is not nil.
func (a *Asserter) NoError(ctx context.Context, err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}

	if len(kv)%2 == 1 {
		kv = append(kv, missingValue)
	}

	kv = append(kv, "error", err)

	return a.fail(ctx, "NoError", msg, kv...)
}

// Never always fails. Use it for branches that must be unreachable.
func (a *Asserter) Never(ctx context.Context, msg string, kv ...any) error {
	return a.fail(ctx, "Never", msg, kv...)
}

func (a *Asserter) fail(ctx context.Context, assertion, msg string, kv ...any) error {
	if a == nil {
		a = New(nil, nil, "")
	}

	details := formatKeyValues(kv)

	a.logger.Log(ctx, log.LevelError, "assertion failed",
		log.String("assertion", assertion),
		log.String("component", a.component),
		log.String("message", msg),
		log.String("details", details),
	)

	if err := a.metrics.RecordAssertionFailed(ctx, a.component, assertion); err != nil {
		a.logger.Log(ctx, log.LevelWarn, "failed to record assertion metric", log.Err(err))
	}

	recordToSpan(ctx, assertion, msg, a.component)

	return &AssertionError{
		Assertion: assertion,
		Message:   msg,
		Component: a.component,
		Details:   details,
	}
}

func recordToSpan(ctx context.Context, assertion, msg, component string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(SpanEventName, trace.WithAttributes(
		attribute.String("assertion.name", assertion),
		attribute.String("assertion.message", msg),
		attribute.String("assertion.component", component),
	))
	span.RecordError(fmt.Errorf("%w: %s", ErrAssertionFailed, msg))
	span.SetStatus(codes.Error, "assertion failed in "+component)
}

func formatKeyValues(kv []any) string {
	if len(kv) == 0 {
		return ""
	}

	pairs := make([]string, 0, (len(kv)+1)/2)

	for i := 0; i < len(kv); i += 2 {
		var value any = missingValue
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		pairs = append(pairs, fmt.Sprintf("%v=%s", kv[i], truncateValue(value)))
	}

	return strings.Join(pairs, " ")
}

// truncateValue keeps logged values short.
func truncateValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= maxValueLength {
		return s
	}

	return s[:maxValueLength] + "... (truncated " + strconv.Itoa(len(s)-maxValueLength) + " chars)"
}
