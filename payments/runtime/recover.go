package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/payments-engine/payments/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicEventName is the span event added for every recovered panic.
const PanicEventName = "panic.recovered"

// HandlePanicValue records a panic value that was already recovered by the
// caller. A nil value is ignored; a nil logger only skips the log entry.
func HandlePanicValue(ctx context.Context, logger log.Logger, panicValue any, component, name string) {
	if panicValue == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	stack := debug.Stack()

	if logger != nil {
		logger.Log(ctx, log.LevelError, "panic recovered",
			log.String("component", component),
			log.String("goroutine", name),
			log.String("panic", fmt.Sprint(panicValue)),
			log.String("stack", string(stack)),
		)
	}

	RecordPanicToSpan(ctx, panicValue, stack, component, name)
}

// RecordPanicToSpan adds a panic event to the span in ctx and marks it failed.
func RecordPanicToSpan(ctx context.Context, panicValue any, stack []byte, component, name string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	message := fmt.Sprint(panicValue)

	span.AddEvent(PanicEventName, trace.WithAttributes(
		attribute.String("panic.component", component),
		attribute.String("panic.goroutine", name),
		attribute.String("panic.value", message),
		attribute.String("panic.stack", string(stack)),
	))
	span.SetStatus(codes.Error, "panic: "+message)
}
