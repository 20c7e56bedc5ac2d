// Package payments holds the run-scoped helpers shared by the payments
// engine packages: context-carried logger, tracer, metrics factory and run
// id, and the mapping from structural errors to operator-facing responses.
package payments
