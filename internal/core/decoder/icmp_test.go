package decoder

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/sniff/internal/core"
)

func TestDecodeICMPEcho(t *testing.T) {
	tests := []struct {
		name     string
		icmpType uint8
	}{
		{"request", layers.ICMPv4TypeEchoRequest},
		{"reply", layers.ICMPv4TypeEchoReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte{tt.icmpType, 0x00, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x07}

			out := decodeICMP(data)
			icmp, ok := out.(*core.ICMP)
			require.True(t, ok, "got %#v", out)
			assert.Equal(t, tt.icmpType, icmp.TypeCode.Type())
			assert.Equal(t, &core.Echo{Identifier: 42, Sequence: 7}, icmp.Echo)
		})
	}
}

func TestDecodeICMPOtherType(t *testing.T) {
	// Destination unreachable, port unreachable
	data := []byte{0x03, 0x03, 0x00, 0x00}

	out := decodeICMP(data)
	icmp, ok := out.(*core.ICMP)
	require.True(t, ok, "got %#v", out)
	assert.Equal(t, layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4CodePort), icmp.TypeCode)
	assert.Nil(t, icmp.Echo)
}

func TestDecodeICMPTooShort(t *testing.T) {
	for n := 0; n < icmpHeaderLen; n++ {
		out := decodeICMP([]byte{0x08, 0x00, 0x00, 0x00}[:n])
		assert.Equal(t, &core.Malformed{At: core.LayerICMP, Available: n}, out)
	}
}

func TestDecodeICMPTruncatedEcho(t *testing.T) {
	// The type byte says echo but the identifier/sequence do not fit.
	for n := icmpHeaderLen; n < icmpEchoHeaderLen; n++ {
		data := make([]byte, n)
		data[0] = layers.ICMPv4TypeEchoRequest
		out := decodeICMP(data)
		assert.Equal(t, &core.Malformed{At: core.LayerICMP, Available: n}, out)
	}

	// A non-echo type of the same size is fine.
	out := decodeICMP([]byte{0x0B, 0x00, 0x00, 0x00, 0x00})
	assert.IsType(t, &core.ICMP{}, out)
}
