// Package runtime turns recovered panics into structured log entries and
// span events.
package runtime
