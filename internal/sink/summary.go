package sink

import (
	"fmt"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/sniff/internal/core"
)

// Summary is the flattened view of one record shared by every output
// format. Fields of layers the frame never reached are left empty.
type Summary struct {
	Interface  string      `json:"interface"`
	Timestamp  time.Time   `json:"timestamp"`
	CaptureLen int         `json:"capture_len"`
	Status     core.Status `json:"status"`
	Layer      core.Layer  `json:"layer"` // layer that ended decoding
	Protocol   string      `json:"protocol,omitempty"`

	SrcMAC    string `json:"src_mac,omitempty"`
	DstMAC    string `json:"dst_mac,omitempty"`
	EtherType string `json:"ethertype,omitempty"`

	SrcIP string `json:"src_ip,omitempty"`
	DstIP string `json:"dst_ip,omitempty"`
	TTL   uint8  `json:"ttl,omitempty"`

	SrcPort uint16 `json:"src_port,omitempty"`
	DstPort uint16 `json:"dst_port,omitempty"`
	Length  int    `json:"length,omitempty"` // TCP bytes, UDP length field or unclassified payload

	ICMPType string       `json:"icmp_type,omitempty"`
	Echo     *EchoSummary `json:"echo,omitempty"`
	ARP      *ARPSummary  `json:"arp,omitempty"`

	Selector  uint16 `json:"selector,omitempty"`  // unclassified ethertype or IP protocol
	Available int    `json:"available,omitempty"` // bytes a malformed layer was handed
}

// EchoSummary carries the ICMP echo sub-header.
type EchoSummary struct {
	Request    bool   `json:"request"`
	Identifier uint16 `json:"id"`
	Sequence   uint16 `json:"seq"`
}

// ARPSummary carries the ARP addresses.
type ARPSummary struct {
	Operation string `json:"operation"`
	SenderMAC string `json:"sender_mac"`
	SenderIP  string `json:"sender_ip"`
	TargetMAC string `json:"target_mac"`
	TargetIP  string `json:"target_ip"`
}

// Summarize walks the outcome chain of rec and flattens it.
func Summarize(rec *core.Record) Summary {
	s := Summary{
		Interface:  rec.Interface.Name,
		Timestamp:  rec.Timestamp,
		CaptureLen: rec.CaptureLen,
	}

	o := rec.Outcome
	for o != nil {
		s.Status = core.StatusOf(o)
		s.Layer = o.Layer()

		var next core.Outcome
		switch v := o.(type) {
		case *core.Ethernet:
			s.SrcMAC = v.Src.String()
			s.DstMAC = v.Dst.String()
			s.EtherType = v.EtherType.String()
			next = v.Next
		case *core.IPv4:
			s.Protocol = "IPv4"
			s.SrcIP = v.Src.String()
			s.DstIP = v.Dst.String()
			s.TTL = v.TTL
			next = v.Next
		case *core.ARP:
			s.Protocol = "ARP"
			s.ARP = &ARPSummary{
				Operation: ARPOperation(v.Operation),
				SenderMAC: v.SenderHW.String(),
				SenderIP:  v.SenderIP.String(),
				TargetMAC: v.TargetHW.String(),
				TargetIP:  v.TargetIP.String(),
			}
		case *core.TCP:
			s.Protocol = "TCP"
			s.SrcPort, s.DstPort = v.SrcPort, v.DstPort
			s.Length = v.Length
		case *core.UDP:
			s.Protocol = "UDP"
			s.SrcPort, s.DstPort = v.SrcPort, v.DstPort
			s.Length = int(v.Length)
		case *core.ICMP:
			s.Protocol = "ICMP"
			s.ICMPType = v.TypeCode.String()
			if v.Echo != nil {
				s.Echo = &EchoSummary{
					Request:    v.TypeCode.Type() == layers.ICMPv4TypeEchoRequest,
					Identifier: v.Echo.Identifier,
					Sequence:   v.Echo.Sequence,
				}
			}
		case *core.Malformed:
			s.Available = v.Available
		case *core.Unclassified:
			s.Selector = v.Selector
			s.Length = v.PayloadLen
			if v.At == core.LayerFrame {
				s.SrcMAC, s.DstMAC = v.Src, v.Dst
				s.EtherType = fmt.Sprintf("0x%04x", v.Selector)
			}
		}
		o = next
	}

	return s
}

// ARPOperation names an ARP opcode.
func ARPOperation(op uint16) string {
	switch op {
	case layers.ARPRequest:
		return "request"
	case layers.ARPReply:
		return "reply"
	default:
		return fmt.Sprintf("other(%d)", op)
	}
}
