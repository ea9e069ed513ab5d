package decoder

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var (
	testSrcMAC = net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	testDstMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	testSrcIP  = net.IP{192, 168, 1, 1}
	testDstIP  = net.IP{192, 168, 1, 2}
)

// serialize builds a frame from gopacket layers with lengths fixed up.
func serialize(t testing.TB, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func ethernetLayer(etherType layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       testDstMAC,
		EthernetType: etherType,
	}
}

func ipv4Layer(proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       0x1234,
		Protocol: proto,
		SrcIP:    testSrcIP,
		DstIP:    testDstIP,
	}
}

// makeUDPFrame builds Ethernet + IPv4 + UDP with the given ports and payload.
func makeUDPFrame(t testing.TB, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	return serialize(t,
		ethernetLayer(layers.EthernetTypeIPv4),
		ipv4Layer(layers.IPProtocolUDP),
		&layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)},
		gopacket.Payload(payload),
	)
}

// makeICMPEchoFrame builds Ethernet + IPv4 + ICMP echo.
func makeICMPEchoFrame(t testing.TB, icmpType uint8, id, seq uint16) []byte {
	t.Helper()
	return serialize(t,
		ethernetLayer(layers.EthernetTypeIPv4),
		ipv4Layer(layers.IPProtocolICMPv4),
		&layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(icmpType, 0),
			Id:       id,
			Seq:      seq,
		},
	)
}

// ipv4Header returns a raw 20-byte IPv4 header with no options.
func ipv4Header(proto byte) []byte {
	return []byte{
		0x45,       // Version 4, IHL 5
		0x00,       // DSCP, ECN
		0x00, 0x1C, // Total Length: 28 bytes
		0x12, 0x34, // Identification
		0x00, 0x00, // Flags, Fragment Offset
		0x40,       // TTL: 64
		proto,      // Protocol
		0x00, 0x00, // Checksum
		192, 168, 1, 1, // Src IP
		192, 168, 1, 2, // Dst IP
	}
}

// ethernetHeader returns a raw Ethernet header with the given EtherType.
func ethernetHeader(etherType uint16) []byte {
	return []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		byte(etherType >> 8), byte(etherType),
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
