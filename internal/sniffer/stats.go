package sniffer

import (
	"sync/atomic"

	"firestige.xyz/sniff/internal/core"
)

// Stats counts what one Sniffer saw. Safe for concurrent reads while Run is
// active.
type Stats struct {
	Frames       atomic.Uint64
	Decoded      atomic.Uint64
	Malformed    atomic.Uint64
	Unclassified atomic.Uint64
	SinkErrors   atomic.Uint64
}

// observe counts the final status of one frame.
func (s *Stats) observe(o core.Outcome) {
	s.Frames.Add(1)
	switch core.StatusOf(core.Innermost(o)) {
	case core.StatusMalformed:
		s.Malformed.Add(1)
	case core.StatusUnclassified:
		s.Unclassified.Add(1)
	default:
		s.Decoded.Add(1)
	}
}

func (s *Stats) fields() map[string]interface{} {
	return map[string]interface{}{
		"frames":       s.Frames.Load(),
		"decoded":      s.Decoded.Load(),
		"malformed":    s.Malformed.Load(),
		"unclassified": s.Unclassified.Load(),
		"sink_errors":  s.SinkErrors.Load(),
	}
}
