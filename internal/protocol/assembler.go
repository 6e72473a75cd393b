package protocol

import (
	"encoding/binary"
)

// Assembler reassembles RCON frames from an arbitrary stream of byte
// chunks. TCP gives no framing guarantees: a single read may carry
// several coalesced packets, or one packet split across many reads.
// The assembler buffers unconsumed bytes between pushes and emits
// packets in arrival order.
type Assembler struct {
	buf []byte
}

// NewAssembler creates an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push appends a chunk to the accumulation buffer and returns every
// complete packet that can now be sliced off the front. Partial
// trailing frames stay buffered until the next push.
func (a *Assembler) Push(chunk []byte) []Packet {
	a.buf = append(a.buf, chunk...)

	var packets []Packet
	for {
		if len(a.buf) < SizePrefixSize {
			break
		}

		size := int(binary.LittleEndian.Uint32(a.buf[0:4]))
		frameLen := SizePrefixSize + size
		if len(a.buf) < frameLen {
			break
		}

		pkt, ok := Decode(a.buf[:frameLen])
		if !ok {
			// Size prefix claims a frame shorter than a valid header.
			// Keep buffering; the peer is trusted to eventually
			// complete the frame.
			break
		}

		packets = append(packets, pkt)
		a.buf = a.buf[frameLen:]
	}

	return packets
}

// Pending returns the number of buffered bytes not yet consumed by a
// complete frame.
func (a *Assembler) Pending() int {
	return len(a.buf)
}

// Reset discards any buffered bytes. Called when the underlying
// connection is torn down so a stale partial frame cannot corrupt the
// next session.
func (a *Assembler) Reset() {
	a.buf = nil
}
