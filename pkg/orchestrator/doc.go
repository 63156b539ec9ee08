// Package orchestrator wires the guard → loader → compiler → exposer startup
// pipeline and the per-call render path behind a single entry point.
package orchestrator
