package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func chatWire(room, token string, message []byte) []byte {
	buf := []byte{byte(len(room)), byte(len(token))}
	buf = append(buf, room...)
	buf = append(buf, token...)
	return append(buf, message...)
}

func TestParseChat_Valid(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    ChatFrame
	}{
		{
			name:  "host message",
			input: chatWire("party", "host_10.0.0.1", []byte("hello")),
			want:  ChatFrame{Room: "party", Token: "host_10.0.0.1", Message: []byte("hello")},
		},
		{
			name:  "guest message",
			input: chatWire("party", "guest_10.0.0.2_1", []byte("hi")),
			want:  ChatFrame{Room: "party", Token: "guest_10.0.0.2_1", Message: []byte("hi")},
		},
		{
			name:  "zero length message",
			input: chatWire("party", "host_10.0.0.1", nil),
			want:  ChatFrame{Room: "party", Token: "host_10.0.0.1", Message: []byte{}},
		},
		{
			name:  "maximum room and token",
			input: chatWire(strings.Repeat("r", 255), strings.Repeat("t", 255), []byte("m")),
			want: ChatFrame{
				Room:    strings.Repeat("r", 255),
				Token:   strings.Repeat("t", 255),
				Message: []byte("m"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseChat(tt.input)
			if err != nil {
				t.Fatalf("ParseChat() error: %v", err)
			}
			if frame.Room != tt.want.Room {
				t.Errorf("Room = %q, want %q", frame.Room, tt.want.Room)
			}
			if frame.Token != tt.want.Token {
				t.Errorf("Token = %q, want %q", frame.Token, tt.want.Token)
			}
			if !bytes.Equal(frame.Message, tt.want.Message) {
				t.Errorf("Message = %q, want %q", frame.Message, tt.want.Message)
			}
		})
	}
}

func TestParseChat_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{
			name:    "empty datagram",
			input:   nil,
			wantErr: ErrFrameTooShort,
		},
		{
			name:    "one byte datagram",
			input:   []byte{5},
			wantErr: ErrFrameTooShort,
		},
		{
			name:    "lengths claim more than payload",
			input:   []byte{5, 5, 0},
			wantErr: ErrFrameTooShort,
		},
		{
			name:    "empty room name",
			input:   chatWire("", "token", []byte("hi")),
			wantErr: ErrEmptyRoomName,
		},
		{
			name:    "empty token",
			input:   chatWire("party", "", []byte("hi")),
			wantErr: ErrEmptyToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChat(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseChat() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatFrame_RoundTrip(t *testing.T) {
	frames := []*ChatFrame{
		{Room: "party", Token: "host_10.0.0.1", Message: []byte("hello")},
		{Room: "p", Token: "t", Message: nil},
		{Room: strings.Repeat("r", 255), Token: strings.Repeat("t", 255), Message: []byte("msg")},
	}

	for _, orig := range frames {
		encoded := orig.Encode()
		if encoded == nil {
			t.Fatalf("Encode(%+v) returned nil", orig)
		}

		decoded, err := ParseChat(encoded)
		if err != nil {
			t.Fatalf("ParseChat() error: %v", err)
		}

		reencoded := decoded.Encode()
		if !bytes.Equal(reencoded, encoded) {
			t.Errorf("re-encode mismatch: %v != %v", reencoded, encoded)
		}
	}
}

func TestChatFrame_MessageCopied(t *testing.T) {
	// ParseChat must not alias the receive buffer; the relay loop reuses it.
	buf := chatWire("party", "tok", []byte("original"))
	frame, err := ParseChat(buf)
	if err != nil {
		t.Fatalf("ParseChat() error: %v", err)
	}

	copy(buf[len(buf)-len("original"):], "CLOBBERED")
	if string(frame.Message) != "original" {
		t.Errorf("Message aliases receive buffer: %q", frame.Message)
	}
}

func TestChatFrame_EncodeInvalid(t *testing.T) {
	if b := (&ChatFrame{Room: "", Token: "t"}).Encode(); b != nil {
		t.Errorf("Encode(empty room) = %v, want nil", b)
	}
	if b := (&ChatFrame{Room: "r", Token: ""}).Encode(); b != nil {
		t.Errorf("Encode(empty token) = %v, want nil", b)
	}
	if b := (&ChatFrame{Room: "r", Token: strings.Repeat("t", 256)}).Encode(); b != nil {
		t.Errorf("Encode(oversized token) = %v, want nil", b)
	}
}
