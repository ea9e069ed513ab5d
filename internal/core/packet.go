// Package core defines core data structures shared by sources, decoders and sinks.
package core

import "time"

// RawPacket is one frame read from a capture source. Data is borrowed for a
// single decode pass and must not be retained by decoders.
type RawPacket struct {
	Data           []byte    // Raw frame data
	Timestamp      time.Time // Capture timestamp (kernel timestamp preferred)
	CaptureLen     uint32    // Actual captured length
	OrigLen        uint32    // Original frame length
	InterfaceIndex int       // Network interface index
}

// InterfaceID identifies the interface a frame was captured on. Decoders
// never look at it; it travels alongside the outcome to the sink.
type InterfaceID struct {
	Name  string
	Index int
}

func (id InterfaceID) String() string {
	return id.Name
}

// Record is the unit handed to a sink: one decoded frame plus its context.
type Record struct {
	Interface  InterfaceID
	Timestamp  time.Time
	CaptureLen int
	Outcome    Outcome
}
