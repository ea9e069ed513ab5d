// Package sniffer runs the read, decode and report loop for one interface.
package sniffer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/core/decoder"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/metrics"
	"firestige.xyz/sniff/internal/sink"
	"firestige.xyz/sniff/internal/source"
)

// Config wires a Sniffer.
type Config struct {
	Interface core.InterfaceID
	Source    source.Source
	Decoder   decoder.Decoder // defaults to decoder.NewStandardDecoder()
	Sink      sink.Sink
	SinkName  string // metrics label, e.g. the output format
}

// Sniffer is a single-goroutine capture loop. It does not own Source or
// Sink; the caller closes them after Run returns.
type Sniffer struct {
	iface    core.InterfaceID
	src      source.Source
	dec      decoder.Decoder
	out      sink.Sink
	sinkName string
	stats    Stats
}

// New creates a Sniffer.
func New(cfg Config) *Sniffer {
	if cfg.Decoder == nil {
		cfg.Decoder = decoder.NewStandardDecoder()
	}
	if cfg.SinkName == "" {
		cfg.SinkName = "default"
	}
	return &Sniffer{
		iface:    cfg.Interface,
		src:      cfg.Source,
		dec:      cfg.Decoder,
		out:      cfg.Sink,
		sinkName: cfg.SinkName,
	}
}

// Stats returns the loop counters.
func (s *Sniffer) Stats() *Stats {
	return &s.stats
}

// Run reads frames until ctx is done or the source is exhausted, both of
// which return nil. Any other source error stops the loop and is returned
// wrapped in core.ErrCaptureFault. Frames that fail to decode and sink
// errors never stop the loop.
func (s *Sniffer) Run(ctx context.Context) error {
	logger := log.GetLogger().WithField("interface", s.iface.Name)
	logger.Info("capture started")

	for {
		raw, err := s.src.ReadPacket(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.WithFields(s.stats.fields()).Info("capture stopped")
				return nil
			}
			metrics.CaptureErrorsTotal.WithLabelValues(s.iface.Name).Inc()
			logger.WithError(err).WithFields(s.stats.fields()).Error("capture failed")
			return fmt.Errorf("%w on %s: %w", core.ErrCaptureFault, s.iface.Name, err)
		}

		s.handle(raw, logger)
	}
}

// handle decodes one frame and hands it to the sink. raw.Data is not
// referenced after it returns.
func (s *Sniffer) handle(raw core.RawPacket, logger log.Logger) {
	outcome := s.dec.Decode(raw)

	s.stats.observe(outcome)
	metrics.ObserveFrame(s.iface.Name, len(raw.Data), outcome)

	if logger.IsTraceEnabled() {
		last := core.Innermost(outcome)
		logger.WithFields(map[string]interface{}{
			"layer":  last.Layer(),
			"status": core.StatusOf(last).String(),
			"bytes":  len(raw.Data),
		}).Trace("frame decoded")
	}

	rec := core.Record{
		Interface:  s.iface,
		Timestamp:  raw.Timestamp,
		CaptureLen: len(raw.Data),
		Outcome:    outcome,
	}
	if err := s.out.Send(&rec); err != nil {
		// first failure is a warning, the rest only add to the counters
		if s.stats.SinkErrors.Add(1) == 1 {
			logger.WithError(err).WithField("sink", s.sinkName).Warn("sink send failed")
		} else {
			logger.WithError(err).Debug("sink send failed")
		}
		metrics.SinkErrorsTotal.WithLabelValues(s.sinkName).Inc()
	}
}
