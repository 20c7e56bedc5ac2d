// Package errgroup runs goroutines that share a cancellation context and
// converts their panics into errors.
package errgroup
