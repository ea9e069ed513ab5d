package afpacket

import "fmt"

const (
	tpacketAlignment = 16 // TPACKET_ALIGNMENT
	tpacketHdrLen    = 52 // TPACKET3_HDRLEN, rounded up
	maxBlockSize     = 4 * 1024 * 1024
)

// ringLayout is the frame/block geometry of a PACKET_MMAP ring.
type ringLayout struct {
	frameSize int
	blockSize int
	numBlocks int
}

// computeRing fits a ring into bufferMB megabytes for frames of up to
// snapLen bytes. The kernel and afpacket require:
//   - frameSize a multiple of TPACKET_ALIGNMENT
//   - blockSize a multiple of pageSize and of frameSize
func computeRing(bufferMB, snapLen, pageSize int) (ringLayout, error) {
	if bufferMB <= 0 {
		return ringLayout{}, fmt.Errorf("buffer size must be positive, got %d MB", bufferMB)
	}
	if snapLen <= 0 {
		return ringLayout{}, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return ringLayout{}, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	frameSize := alignUp(tpacketHdrLen+snapLen, tpacketAlignment)
	if frameSize > pageSize {
		frameSize = alignUp(frameSize, pageSize)
	}

	// smallest block holding whole frames and whole pages, then as many of
	// those as fit the block cap and the buffer
	unit := lcm(pageSize, frameSize)
	target := bufferMB * 1024 * 1024
	blockSize := unit
	if per := min(target, maxBlockSize) / unit; per > 1 {
		blockSize = per * unit
	}

	numBlocks := max(1, target/blockSize)

	return ringLayout{frameSize: frameSize, blockSize: blockSize, numBlocks: numBlocks}, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
