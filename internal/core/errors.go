// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Per-frame decode problems are never errors; they are
// reported as Malformed or Unclassified outcomes.
var (
	// Startup errors
	ErrUsage             = errors.New("sniff: exactly one interface name is required")
	ErrInterfaceNotFound = errors.New("sniff: interface not found")
	ErrConfigInvalid     = errors.New("sniff: invalid configuration")

	// Capture errors
	ErrCaptureFault  = errors.New("sniff: capture source failed")
	ErrSourceClosed  = errors.New("sniff: capture source closed")
	ErrUnknownSource = errors.New("sniff: unknown capture source")

	// Sink errors
	ErrUnknownSink = errors.New("sniff: unknown sink")
)
