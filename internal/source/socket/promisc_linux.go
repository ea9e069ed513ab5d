//go:build linux

package socket

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// joinPromisc adds a PACKET_MR_PROMISC membership on fd. The kernel drops it
// when fd is closed.
func joinPromisc(fd, ifindex int) error {
	mreq := &unix.PacketMreq{
		Ifindex: int32(ifindex),
		Type:    unix.PACKET_MR_PROMISC,
	}
	if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, mreq); err != nil {
		return fmt.Errorf("failed to enable promiscuous mode on ifindex %d: %w", ifindex, err)
	}
	return nil
}

type fdCloser int

func (c fdCloser) Close() error {
	return unix.Close(int(c))
}

// HoldPromisc keeps the interface in promiscuous mode until the returned
// Closer is closed. Backends whose handle does not expose its descriptor use
// it to get the same behaviour as the raw socket.
func HoldPromisc(ifindex int) (io.Closer, error) {
	// protocol 0: the socket receives nothing, it only carries the membership
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open membership socket: %w", err)
	}
	if err := joinPromisc(fd, ifindex); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return fdCloser(fd), nil
}
