package decoder

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/sniff/internal/core"
)

// Ethernet/IPv4 ARP: htype(2) ptype(2) hlen(1) plen(1) oper(2) sha(6) spa(4) tha(6) tpa(4)
const arpHeaderLen = 28

// decodeARP decodes an ARP packet. ARP has no next layer, so any operation
// code yields a decoded record.
func decodeARP(data []byte) core.Outcome {
	if len(data) < arpHeaderLen {
		return malformed(core.LayerARP, data)
	}

	arp := &core.ARP{
		Operation: binary.BigEndian.Uint16(data[6:8]),
		SenderIP:  netip.AddrFrom4([4]byte(data[14:18])),
		TargetIP:  netip.AddrFrom4([4]byte(data[24:28])),
	}
	copy(arp.SenderHW[:], data[8:14])
	copy(arp.TargetHW[:], data[18:24])

	return arp
}
