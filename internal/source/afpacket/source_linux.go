//go:build linux

package afpacket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/afpacket"
	"golang.org/x/sys/unix"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/source"
	"firestige.xyz/sniff/internal/source/socket"
)

// Name is the capture.source value selecting this backend.
const Name = "afpacket"

func init() {
	source.Register(Name, func(cfg config.CaptureConfig, id core.InterfaceID) (source.Source, error) {
		return Open(cfg, id)
	})
}

// Source reads frames from a TPACKET_V3 ring. Frames are returned zero-copy
// and stay valid until the next ReadPacket call.
type Source struct {
	handle  *afpacket.TPacket
	id      core.InterfaceID
	promisc io.Closer
}

// Open creates the ring on id sized from cfg.
func Open(cfg config.CaptureConfig, id core.InterfaceID) (*Source, error) {
	ring, err := computeRing(cfg.BufferSizeMB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, err
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(id.Name),
		afpacket.OptFrameSize(ring.frameSize),
		afpacket.OptBlockSize(ring.blockSize),
		afpacket.OptNumBlocks(ring.numBlocks),
		afpacket.OptPollTimeout(cfg.Timeout()),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create TPacket handle: %w", err)
	}

	s := &Source{handle: tp, id: id}

	if cfg.Promiscuous {
		if s.promisc, err = socket.HoldPromisc(id.Index); err != nil {
			tp.Close()
			return nil, err
		}
	}

	if err := tp.InitSocketStats(); err != nil {
		log.GetLogger().WithError(err).Warn("failed to init socket stats")
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"interface":  id.Name,
		"frame_size": ring.frameSize,
		"block_size": ring.blockSize,
		"num_blocks": ring.numBlocks,
	}).Debug("afpacket ring opened")

	return s, nil
}

// ReadPacket returns the next frame, looping over poll timeouts until ctx
// is done.
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
			if errors.Is(err, afpacket.ErrTimeout) || errors.Is(err, unix.EINTR) {
				continue
			}
			if ctx.Err() != nil {
				return core.RawPacket{}, ctx.Err()
			}
			return core.RawPacket{}, fmt.Errorf("read TPacket ring: %w", err)
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

// Close logs the kernel counters and releases the ring. It must not race
// with ReadPacket: the ring is unmapped on close.
func (s *Source) Close() error {
	if s.handle == nil {
		return nil
	}

	if _, v3, err := s.handle.SocketStats(); err == nil {
		log.GetLogger().WithFields(map[string]interface{}{
			"interface": s.id.Name,
			"packets":   v3.Packets(),
			"drops":     v3.Drops(),
		}).Info("afpacket socket stats")
	}

	s.handle.Close()
	s.handle = nil

	if s.promisc != nil {
		return s.promisc.Close()
	}
	return nil
}
