// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/sniff/internal/core"
)

const ethernetHeaderLen = 14

// decodeEthernet decodes the Ethernet II header and dispatches on EtherType.
func decodeEthernet(data []byte) core.Outcome {
	if len(data) < ethernetHeaderLen {
		return malformed(core.LayerFrame, data)
	}

	eth := &core.Ethernet{}

	// Destination MAC (6 bytes)
	copy(eth.Dst[:], data[0:6])

	// Source MAC (6 bytes)
	copy(eth.Src[:], data[6:12])

	// EtherType (2 bytes)
	eth.EtherType = layers.EthernetType(binary.BigEndian.Uint16(data[12:14]))

	payload := data[ethernetHeaderLen:]
	eth.PayloadLen = len(payload)

	switch eth.EtherType {
	case layers.EthernetTypeIPv4:
		eth.Next = decodeIPv4(payload)
	case layers.EthernetTypeARP:
		eth.Next = decodeARP(payload)
	default:
		// VLAN, IPv6, LLDP, ...
		return &core.Unclassified{
			At:         core.LayerFrame,
			Selector:   uint16(eth.EtherType),
			Src:        eth.Src.String(),
			Dst:        eth.Dst.String(),
			PayloadLen: len(payload),
		}
	}
	return eth
}
