// Package pcap captures frames through a libpcap live handle.
package pcap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/source"
)

// Name is the capture.source value selecting this backend.
const Name = "pcap"

func init() {
	source.Register(Name, func(cfg config.CaptureConfig, id core.InterfaceID) (source.Source, error) {
		return Open(cfg, id)
	})
}

// Source wraps an activated pcap handle.
type Source struct {
	handle *pcap.Handle
	id     core.InterfaceID
}

// Open activates a live capture on id.
func Open(cfg config.CaptureConfig, id core.InterfaceID) (*Source, error) {
	inactive, err := pcap.NewInactiveHandle(id.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(cfg.SnapLen); err != nil {
		return nil, fmt.Errorf("set snap length: %w", err)
	}
	if err := inactive.SetPromisc(cfg.Promiscuous); err != nil {
		return nil, fmt.Errorf("set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(cfg.Timeout()); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	if err := inactive.SetBufferSize(cfg.BufferSizeMB * 1024 * 1024); err != nil {
		return nil, fmt.Errorf("set buffer size: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("failed to activate pcap handle: %w", err)
	}

	if lt := handle.LinkType(); lt != layers.LinkTypeEthernet {
		log.GetLogger().WithFields(map[string]interface{}{
			"interface": id.Name,
			"link_type": lt.String(),
		}).Warn("interface is not Ethernet, frames may not decode")
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"interface": id.Name,
		"snap_len":  cfg.SnapLen,
		"version":   pcap.Version(),
	}).Debug("pcap handle activated")

	return &Source{handle: handle, id: id}, nil
}

// ReadPacket returns the next frame, skipping read timeouts until ctx is done.
func (s *Source) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	if s.handle == nil {
		return core.RawPacket{}, core.ErrSourceClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return core.RawPacket{}, err
		}

		data, ci, err := s.handle.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			return core.RawPacket{}, fmt.Errorf("read pcap handle: %w", err)
		}

		return core.RawPacket{
			Data:           data,
			Timestamp:      ci.Timestamp,
			CaptureLen:     uint32(ci.CaptureLength),
			OrigLen:        uint32(ci.Length),
			InterfaceIndex: s.id.Index,
		}, nil
	}
}

// Close logs libpcap counters and closes the handle.
func (s *Source) Close() error {
	if s.handle == nil {
		return nil
	}

	if stats, err := s.handle.Stats(); err == nil {
		log.GetLogger().WithFields(map[string]interface{}{
			"interface":          s.id.Name,
			"packets_received":   stats.PacketsReceived,
			"packets_dropped":    stats.PacketsDropped,
			"packets_if_dropped": stats.PacketsIfDropped,
		}).Info("pcap stats")
	}

	s.handle.Close()
	s.handle = nil
	return nil
}
