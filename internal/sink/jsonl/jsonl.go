// Package jsonl writes one JSON summary object per line.
package jsonl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/sink"
)

// Name is the output.format value selecting this sink.
const Name = "json"

func init() {
	sink.Register(Name, func(cfg config.OutputConfig) (sink.Sink, error) {
		return NewSink(os.Stdout), nil
	})
}

// Sink encodes sink.Summary values to w.
type Sink struct {
	enc           *json.Encoder
	reportedCount atomic.Uint64
}

// NewSink creates a JSON lines sink writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{enc: json.NewEncoder(w)}
}

// Send encodes rec as one line.
func (s *Sink) Send(rec *core.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if err := s.enc.Encode(sink.Summarize(rec)); err != nil {
		return fmt.Errorf("json encode failed: %w", err)
	}
	s.reportedCount.Add(1)
	return nil
}

// Close reports how many records were written.
func (s *Sink) Close() error {
	log.GetLogger().WithField("total_reported", s.reportedCount.Load()).Debug("json sink stopped")
	return nil
}
