// Package zap adapts go.uber.org/zap to the payments log.Logger interface.
//
// Entries go to stderr so that stdout stays reserved for the account report.
package zap
