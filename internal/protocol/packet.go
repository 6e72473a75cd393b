// Package protocol implements the RCON binary wire format used by
// Minecraft servers. Every frame is a little-endian size-prefixed
// packet carrying a request id, a packet type, and a NUL-terminated
// UTF-8 body.
package protocol

// PacketType identifies the kind of RCON packet. ExecCommand and
// AuthResponse share the numeric value 2 on the wire; which one a
// packet means is determined by the connection phase, not by the tag
// alone.
type PacketType int32

const (
	// ResponseValue carries the text result of an executed command.
	ResponseValue PacketType = 0

	// AuthResponse acknowledges an Auth packet. An id of -1 signals
	// that the shared secret was rejected.
	AuthResponse PacketType = 2

	// ExecCommand carries a console command to execute.
	ExecCommand PacketType = 2

	// Auth carries the shared secret during the handshake.
	Auth PacketType = 3
)

// AuthFailureID is the request id the server echoes back when
// authentication fails.
const AuthFailureID int32 = -1

// HeaderSize is the number of bytes covered by the size prefix that
// are not body bytes: id(4) + type(4) + two trailing NULs.
const HeaderSize = 10

// SizePrefixSize is the width of the leading size field, which itself
// is not counted by the size it carries.
const SizePrefixSize = 4

// Packet is one RCON request or response frame.
type Packet struct {
	ID   int32
	Type PacketType
	Body string
}
