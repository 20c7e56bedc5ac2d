// Package cli builds the payments-engine command tree.
//
// The root command reads a transaction CSV from a path or stdin, applies it
// to a fresh engine and writes the final account table to stdout. Logs go
// to stderr so stdout carries only the report.
package cli
