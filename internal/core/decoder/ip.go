package decoder

import (
	"encoding/binary"
	"net/netip"

	"github.com/google/gopacket/layers"

	"firestige.xyz/sniff/internal/core"
)

const ipv4HeaderMinLen = 20

// decodeIPv4 decodes an IPv4 header, skips its options and dispatches on the
// protocol field.
func decodeIPv4(data []byte) core.Outcome {
	if len(data) < ipv4HeaderMinLen {
		return malformed(core.LayerIPv4, data)
	}

	// IHL (Internet Header Length) - lower 4 bits of first byte, in 32-bit words
	headerLen := int(data[0]&0x0F) * 4

	if headerLen < ipv4HeaderMinLen || len(data) < headerLen {
		return malformed(core.LayerIPv4, data)
	}

	ip := &core.IPv4{
		HeaderLen: headerLen,
		TotalLen:  binary.BigEndian.Uint16(data[2:4]),
		TTL:       data[8],
		Protocol:  layers.IPProtocol(data[9]),
		Src:       netip.AddrFrom4([4]byte(data[12:16])),
		Dst:       netip.AddrFrom4([4]byte(data[16:20])),
	}

	// Payload starts after the declared header, options included
	payload := data[headerLen:]
	ip.Next = decodeTransport(ip, payload)
	return ip
}
