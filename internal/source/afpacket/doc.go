// Package afpacket captures frames through a TPACKET_V3 memory-mapped ring
// (gopacket/afpacket). It is the default backend on Linux.
package afpacket
