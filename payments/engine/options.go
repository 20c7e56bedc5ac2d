package engine

import (
	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/LerianStudio/payments-engine/payments/transaction"
)

// MaxAccounts is the number of distinct client ids.
const MaxAccounts = 1 << 16

// Rejection describes one dropped event.
type Rejection struct {
	Event transaction.Event
	Err   transaction.DomainError
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for rejections and lifecycle events.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the factory the engine records its counters on.
func WithMetrics(factory *metrics.MetricsFactory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.metrics = factory
		}
	}
}

// WithRejectionHook registers fn to be called for every dropped event.
func WithRejectionHook(fn func(Rejection)) Option {
	return func(e *Engine) {
		e.onReject = fn
	}
}

// WithPreallocatedAccounts sizes the account table for every client id up
// front instead of growing it on demand.
func WithPreallocatedAccounts() Option {
	return func(e *Engine) {
		e.accounts = make([]slot, MaxAccounts)
	}
}
