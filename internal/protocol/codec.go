package protocol

import (
	"encoding/binary"
)

// Encode serializes a packet into its wire representation:
// [size:4 LE][id:4 LE][type:4 LE][body][0x00 0x00], where size counts
// everything after the size field itself.
func Encode(p Packet) []byte {
	body := []byte(p.Body)
	size := HeaderSize + len(body)

	buf := make([]byte, SizePrefixSize+size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.ID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Type))
	copy(buf[12:], body)
	// Trailing NUL pair is already zeroed by make.

	return buf
}

// Decode parses one complete frame from the start of buf. It returns
// ok=false when the buffer does not hold a full, well-formed frame.
// The wire is trusted (the peer is an operator-controlled game
// server), so a malformed prefix means "wait for more bytes", never an
// error.
func Decode(buf []byte) (Packet, bool) {
	if len(buf) < SizePrefixSize+HeaderSize {
		return Packet{}, false
	}

	size := int(binary.LittleEndian.Uint32(buf[0:4]))
	if size < HeaderSize || SizePrefixSize+size > len(buf) {
		return Packet{}, false
	}

	id := int32(binary.LittleEndian.Uint32(buf[4:8]))
	typ := PacketType(binary.LittleEndian.Uint32(buf[8:12]))

	bodyEnd := SizePrefixSize + size - 2 // strip the two trailing NULs
	body := string(buf[12:bodyEnd])

	return Packet{ID: id, Type: typ, Body: body}, true
}
