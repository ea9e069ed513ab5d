//go:build linux

package socket

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/source"
)

// Name is the capture.source value selecting this backend.
const Name = "socket"

func init() {
	source.Register(Name, func(cfg config.CaptureConfig, id core.InterfaceID) (source.Source, error) {
		return Open(cfg, id)
	})
}

// Source reads frames with recvfrom on an AF_PACKET/SOCK_RAW socket bound to
// one interface.
type Source struct {
	fd        int
	id        core.InterfaceID
	buf       []byte
	timeoutMs int
	closed    atomic.Bool
}

// Open opens a raw socket bound to id.
func Open(cfg config.CaptureConfig, id core.InterfaceID) (*Source, error) {
	proto := htons(unix.ETH_P_ALL)

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, fmt.Errorf("failed to open raw socket: %w", err)
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  id.Index,
	}
	if err := unix.Bind(fd, sll); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to bind raw socket to %s: %w", id.Name, err)
	}

	if cfg.Promiscuous {
		if err := joinPromisc(fd, id.Index); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
	}

	if cfg.BufferSizeMB > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.BufferSizeMB*1024*1024); err != nil {
			log.GetLogger().WithError(err).Warn("failed to set socket receive buffer")
		}
	}

	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 100
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"interface":   id.Name,
		"snap_len":    cfg.SnapLen,
		"promiscuous": cfg.Promiscuous,
	}).Debug("raw socket opened")

	return &Source{
		fd:        fd,
		id:        id,
		buf:       make([]byte, cfg.SnapLen),
		timeoutMs: timeoutMs,
	}, nil
}

// ReadPacket polls the socket in timeoutMs steps so ctx is honoured, then
// receives one frame into the shared buffer.
func (s *Source) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	pfd := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return core.RawPacket{}, err
		}
		if s.closed.Load() {
			return core.RawPacket{}, core.ErrSourceClosed
		}

		ready, err := unix.Poll(pfd, s.timeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return core.RawPacket{}, fmt.Errorf("poll raw socket: %w", err)
		}
		if ready == 0 {
			continue
		}

		// MSG_TRUNC makes n the original frame length even when buf is shorter.
		n, _, err := unix.Recvfrom(s.fd, s.buf, unix.MSG_TRUNC)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			if s.closed.Load() {
				return core.RawPacket{}, core.ErrSourceClosed
			}
			return core.RawPacket{}, fmt.Errorf("recvfrom raw socket: %w", err)
		}

		captured := min(n, len(s.buf))
		return core.RawPacket{
			Data:           s.buf[:captured],
			Timestamp:      time.Now(),
			CaptureLen:     uint32(captured),
			OrigLen:        uint32(n),
			InterfaceIndex: s.id.Index,
		}, nil
	}
}

// Close closes the socket. It is safe to call more than once.
func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.fd)
}

// htons converts v to network byte order as the kernel expects for
// sll_protocol and the socket protocol argument.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}
