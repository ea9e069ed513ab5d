package decoder

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/sniff/internal/core"
)

const (
	icmpHeaderLen     = 4 // type, code, checksum
	icmpEchoHeaderLen = 8 // + identifier, sequence
)

// decodeICMP decodes an ICMPv4 header. Echo requests and replies also carry
// their identifier and sequence number; other types only report type/code.
func decodeICMP(data []byte) core.Outcome {
	if len(data) < icmpHeaderLen {
		return malformed(core.LayerICMP, data)
	}

	icmp := &core.ICMP{
		TypeCode: layers.CreateICMPv4TypeCode(data[0], data[1]),
	}

	switch icmp.TypeCode.Type() {
	case layers.ICMPv4TypeEchoRequest, layers.ICMPv4TypeEchoReply:
		// The base header fits but the echo header may not.
		if len(data) < icmpEchoHeaderLen {
			return malformed(core.LayerICMP, data)
		}
		icmp.Echo = &core.Echo{
			Identifier: binary.BigEndian.Uint16(data[4:6]),
			Sequence:   binary.BigEndian.Uint16(data[6:8]),
		}
	}
	return icmp
}
