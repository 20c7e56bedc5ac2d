// Package log defines the structured logging interface used across the
// payments engine, plus typed fields for the values the engine logs most.
//
// The zap package provides the production backend; NewNop discards everything.
package log
