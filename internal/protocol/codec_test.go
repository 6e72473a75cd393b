package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeLayout(t *testing.T) {
	data := Encode(Packet{ID: 7, Type: ExecCommand, Body: "list"})

	want := []byte{
		14, 0, 0, 0, // size = 10 header + 4 body
		7, 0, 0, 0, // id
		2, 0, 0, 0, // type
		'l', 'i', 's', 't',
		0, 0, // trailing NULs
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("encoded frame = % x, want % x", data, want)
	}
}

func TestEncodeNegativeID(t *testing.T) {
	data := Encode(Packet{ID: AuthFailureID, Type: AuthResponse})

	id := int32(binary.LittleEndian.Uint32(data[4:8]))
	if id != -1 {
		t.Fatalf("decoded id = %d, want -1", id)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  Packet
	}{
		{"auth", Packet{ID: 1, Type: Auth, Body: "hunter2"}},
		{"command", Packet{ID: 42, Type: ExecCommand, Body: "/fill 0 64 0 10 70 10 stone"}},
		{"empty body", Packet{ID: 3, Type: ResponseValue, Body: ""}},
		{"auth failure id", Packet{ID: -1, Type: AuthResponse, Body: ""}},
		{"unicode body", Packet{ID: 9, Type: ResponseValue, Body: "§aDone: 128 blöcke"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(Encode(tt.pkt))
			if !ok {
				t.Fatal("Decode returned not-ok for a complete frame")
			}
			if got != tt.pkt {
				t.Fatalf("round trip = %+v, want %+v", got, tt.pkt)
			}
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	full := Encode(Packet{ID: 5, Type: ExecCommand, Body: "say hi"})

	for cut := 0; cut < len(full); cut++ {
		if _, ok := Decode(full[:cut]); ok {
			t.Fatalf("Decode accepted a truncated frame of %d/%d bytes", cut, len(full))
		}
	}
}

func TestDecodeUndersizedPrefix(t *testing.T) {
	// A size prefix smaller than the fixed header can never form a
	// valid frame; the codec must signal "incomplete", not panic.
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], 3)

	if _, ok := Decode(buf); ok {
		t.Fatal("Decode accepted a frame with an undersized prefix")
	}
}
