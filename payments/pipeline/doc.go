// Package pipeline feeds a CSV transaction stream into an engine.
//
// Decoding may run on several goroutines over fixed-size chunks of raw
// records, but chunks are always applied to the engine in input order, one
// event at a time, on the calling goroutine's behalf. The first structural
// error in input order ends the run.
package pipeline
