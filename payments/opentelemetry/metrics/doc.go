// Package metrics provides a caching factory for OpenTelemetry metric
// instruments and the engine's named metrics.
//
// Instruments are created lazily on first use and reused afterwards; builders
// compose attributes without mutating the cached instrument.
package metrics
