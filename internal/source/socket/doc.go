// Package socket captures frames from a plain AF_PACKET raw socket.
//
// It needs no ring buffer or libpcap and is the fallback when neither
// afpacket nor pcap is usable. Linux only.
package socket
