// Package engine applies transaction events to client accounts in input
// order and produces the final account snapshot.
//
// An Engine owns its account table and transaction ledger for the whole run
// and is not safe for concurrent use. Events that break a business rule are
// dropped without touching state; Apply reports them through the logger, the
// metrics factory and an optional rejection hook, and returns nil. Apply only
// returns an error for structural failures such as currency overflow, after
// which the run must stop.
package engine
