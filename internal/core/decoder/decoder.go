// Package decoder implements the layered L2-L4 frame decoder.
//
// Every decoder takes the exact payload left by the layer above, checks its
// own minimum length before indexing and returns a core.Outcome. Nothing is
// retained between calls.
package decoder

import "firestige.xyz/sniff/internal/core"

// Decoder decodes raw frames into layered outcomes.
type Decoder interface {
	Decode(raw core.RawPacket) core.Outcome
}

// StandardDecoder decodes Ethernet II frames carrying ARP or IPv4.
type StandardDecoder struct{}

// NewStandardDecoder creates a StandardDecoder.
func NewStandardDecoder() *StandardDecoder {
	return &StandardDecoder{}
}

// Decode implements Decoder.
func (d *StandardDecoder) Decode(raw core.RawPacket) core.Outcome {
	return Decode(raw.Data)
}

// Decode decodes one Ethernet frame. It never panics on short input.
func Decode(data []byte) core.Outcome {
	return decodeEthernet(data)
}

func malformed(layer core.Layer, data []byte) core.Outcome {
	return &core.Malformed{At: layer, Available: len(data)}
}
