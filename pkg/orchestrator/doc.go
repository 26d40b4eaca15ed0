// Package orchestrator wires the fetch → load → interpret → render sequence
// and the submission round trip, providing dependency injection friendly
// helpers for consumers that prefer a single entry point.
package orchestrator
