package decoder

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/sniff/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20
)

// decodeTransport dispatches the IPv4 payload to the TCP, UDP or ICMP leaf.
func decodeTransport(ip *core.IPv4, data []byte) core.Outcome {
	switch ip.Protocol {
	case layers.IPProtocolTCP:
		return decodeTCP(data)
	case layers.IPProtocolUDP:
		return decodeUDP(data)
	case layers.IPProtocolICMPv4:
		return decodeICMP(data)
	default:
		// SCTP, GRE, IGMP, ...
		return &core.Unclassified{
			At:         core.LayerIPv4,
			Selector:   uint16(ip.Protocol),
			Src:        ip.Src.String(),
			Dst:        ip.Dst.String(),
			PayloadLen: len(data),
		}
	}
}

// decodeUDP decodes a UDP header.
func decodeUDP(data []byte) core.Outcome {
	if len(data) < udpHeaderLen {
		return malformed(core.LayerUDP, data)
	}

	return &core.UDP{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
		// Length includes header and data; checksum at 6..8 is not needed
		Length: binary.BigEndian.Uint16(data[4:6]),
	}
}

// decodeTCP decodes the fixed part of a TCP header. Options are not decoded,
// so the reported length is everything the IPv4 layer handed over.
func decodeTCP(data []byte) core.Outcome {
	if len(data) < tcpHeaderMinLen {
		return malformed(core.LayerTCP, data)
	}

	return &core.TCP{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
		Length:  len(data),
	}
}
