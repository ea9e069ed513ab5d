// Package core defines core types shared by decoders and sinks.
package core

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket/layers"
)

// Layer names one level of the decode chain.
type Layer string

const (
	LayerFrame Layer = "frame"
	LayerARP   Layer = "arp"
	LayerIPv4  Layer = "ipv4"
	LayerTCP   Layer = "tcp"
	LayerUDP   Layer = "udp"
	LayerICMP  Layer = "icmp"
)

// Status classifies an Outcome.
type Status int

const (
	StatusDecoded Status = iota
	StatusMalformed
	StatusUnclassified
)

func (s Status) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusMalformed:
		return "malformed"
	case StatusUnclassified:
		return "unclassified"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "decoded":
		*s = StatusDecoded
	case "malformed":
		*s = StatusMalformed
	case "unclassified":
		*s = StatusUnclassified
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Outcome is the result of a single decoder: one of the header records in
// this file (decoded), *Malformed or *Unclassified. The set is closed.
type Outcome interface {
	Layer() Layer
	outcome()
}

// StatusOf reports which family an outcome belongs to.
func StatusOf(o Outcome) Status {
	switch o.(type) {
	case *Malformed:
		return StatusMalformed
	case *Unclassified:
		return StatusUnclassified
	default:
		return StatusDecoded
	}
}

// Innermost follows the Next links of o and returns the last outcome of the
// chain, i.e. the one that ended decoding of the frame.
func Innermost(o Outcome) Outcome {
	for {
		switch v := o.(type) {
		case *Ethernet:
			if v.Next == nil {
				return v
			}
			o = v.Next
		case *IPv4:
			if v.Next == nil {
				return v
			}
			o = v.Next
		default:
			return o
		}
	}
}

// HardwareAddr is a copied 48-bit link-layer address.
type HardwareAddr [6]byte

func (a HardwareAddr) String() string {
	return net.HardwareAddr(a[:]).String()
}

// Malformed reports that a layer's length constraints were violated.
// Available is the number of bytes the decoder was handed.
type Malformed struct {
	At        Layer
	Available int
}

// Unclassified reports a well-formed header whose next-layer selector is
// not implemented. Src and Dst are the rendered addresses of the layer.
type Unclassified struct {
	At         Layer
	Selector   uint16
	Src        string
	Dst        string
	PayloadLen int
}

// Ethernet represents an L2 Ethernet II header.
type Ethernet struct {
	Src        HardwareAddr
	Dst        HardwareAddr
	EtherType  layers.EthernetType // 0x0800=IPv4, 0x0806=ARP
	PayloadLen int
	Next       Outcome
}

// ARP represents an Ethernet/IPv4 ARP packet.
type ARP struct {
	Operation uint16 // 1=request, 2=reply, reported verbatim otherwise
	SenderHW  HardwareAddr
	SenderIP  netip.Addr
	TargetHW  HardwareAddr
	TargetIP  netip.Addr
}

// IPv4 represents an L3 IPv4 header.
type IPv4 struct {
	Src       netip.Addr
	Dst       netip.Addr
	Protocol  layers.IPProtocol // TCP=6, UDP=17, ICMP=1
	HeaderLen int               // IHL*4, options included
	TotalLen  uint16
	TTL       uint8
	Next      Outcome
}

// TCP represents an L4 TCP header. Length is the number of bytes handed to
// the decoder (header, options and data); options are not decoded.
type TCP struct {
	SrcPort uint16
	DstPort uint16
	Length  int
}

// UDP represents an L4 UDP header. Length is the header's length field.
type UDP struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16
}

// ICMP represents an ICMPv4 header. Echo is set for echo requests and replies only.
type ICMP struct {
	TypeCode layers.ICMPv4TypeCode
	Echo     *Echo
}

// Echo is the identifier/sequence sub-header of ICMP echo messages.
type Echo struct {
	Identifier uint16
	Sequence   uint16
}

func (*Malformed) outcome()    {}
func (*Unclassified) outcome() {}
func (*Ethernet) outcome()     {}
func (*ARP) outcome()          {}
func (*IPv4) outcome()         {}
func (*TCP) outcome()          {}
func (*UDP) outcome()          {}
func (*ICMP) outcome()         {}

func (m *Malformed) Layer() Layer    { return m.At }
func (u *Unclassified) Layer() Layer { return u.At }
func (*Ethernet) Layer() Layer       { return LayerFrame }
func (*ARP) Layer() Layer            { return LayerARP }
func (*IPv4) Layer() Layer           { return LayerIPv4 }
func (*TCP) Layer() Layer            { return LayerTCP }
func (*UDP) Layer() Layer            { return LayerUDP }
func (*ICMP) Layer() Layer           { return LayerICMP }
