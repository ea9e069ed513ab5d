// Package console prints one human readable line per frame.
package console

import (
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
const Name = "text"

func init() {
	sink.Register(Name, func(cfg config.OutputConfig) (sink.Sink, error) {
		return NewSink(os.Stdout), nil
	})
}

// Sink writes Format lines to w.
type Sink struct {
	w             io.Writer
	reportedCount atomic.Uint64
}

// NewSink creates a console sink writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Send prints rec.
func (s *Sink) Send(rec *core.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if _, err := fmt.Fprintln(s.w, Format(sink.Summarize(rec))); err != nil {
		return fmt.Errorf("write console line: %w", err)
	}
	s.reportedCount.Add(1)
	return nil
}

// Close reports how many lines were written.
func (s *Sink) Close() error {
	log.GetLogger().WithField("total_reported", s.reportedCount.Load()).Debug("console sink stopped")
	return nil
}

// Format renders a summary as a single line, prefixed by the interface name.
func Format(s sink.Summary) string {
	prefix := fmt.Sprintf("[%s]: ", s.Interface)

	switch s.Status {
	case core.StatusMalformed:
		return prefix + fmt.Sprintf("Malformed %s packet (%d bytes available)", s.Layer, s.Available)

	case core.StatusUnclassified:
		if s.Layer == core.LayerFrame {
			return prefix + fmt.Sprintf("Unknown packet: %s > %s; ethertype: 0x%04x length: %d",
				s.SrcMAC, s.DstMAC, s.Selector, s.Length)
		}
		return prefix + fmt.Sprintf("Unknown IPv4 packet: %s > %s; protocol: %d length: %d",
			s.SrcIP, s.DstIP, s.Selector, s.Length)
	}

	switch s.Layer {
	case core.LayerARP:
		a := s.ARP
		return prefix + fmt.Sprintf("ARP packet: %s(%s) > %s(%s); operation: %s",
			a.SenderMAC, a.SenderIP, a.TargetMAC, a.TargetIP, a.Operation)
	case core.LayerTCP, core.LayerUDP:
		return prefix + fmt.Sprintf("%s Packet: %s:%d > %s:%d; length: %d",
			s.Protocol, s.SrcIP, s.SrcPort, s.DstIP, s.DstPort, s.Length)
	case core.LayerICMP:
		if s.Echo != nil {
			kind := "reply"
			if s.Echo.Request {
				kind = "request"
			}
			return prefix + fmt.Sprintf("ICMP echo %s %s -> %s (seq=%d, id=%d)",
				kind, s.SrcIP, s.DstIP, s.Echo.Sequence, s.Echo.Identifier)
		}
		return prefix + fmt.Sprintf("ICMP packet %s -> %s (type=%s)", s.SrcIP, s.DstIP, s.ICMPType)
	default:
		return prefix + fmt.Sprintf("%s packet: %s > %s; length: %d", s.Layer, s.SrcMAC, s.DstMAC, s.CaptureLen)
	}
}
