package protocol

import (
	"errors"
	"io"
	"unicode/utf8"
)

// Admission frame parse errors.
var (
	ErrFrameTooShort    = errors.New("frame shorter than its length fields imply")
	ErrEmptyRoomName    = errors.New("empty room name")
	ErrUnknownOperation = errors.New("unknown operation code")
	ErrTrailingData     = errors.New("trailing data after frame")
	ErrInvalidUTF8      = errors.New("room name is not valid UTF-8")
)

// AdmissionRequest is the decoded admission frame: one CREATE or JOIN
// request for a named room. Wire layout:
//
//	byte 0   : room name length (1..255)
//	byte 1   : operation (1=CREATE, 2=JOIN)
//	byte 2   : state (reserved, sent as 0, ignored on receive)
//	bytes 3..: room name (UTF-8)
//
// A frame is exactly 3 + room name length bytes; anything shorter or
// longer is rejected.
type AdmissionRequest struct {
	Op   Operation
	Room string
}

// ParseAdmission decodes an admission frame from a complete byte slice.
func ParseAdmission(data []byte) (*AdmissionRequest, error) {
	if len(data) < AdmissionHeaderSize {
		return nil, ErrFrameTooShort
	}

	roomLen := int(data[0])
	if roomLen == 0 {
		return nil, ErrEmptyRoomName
	}

	op := Operation(data[1])
	if !op.Valid() {
		return nil, ErrUnknownOperation
	}

	// data[2] is the reserved state byte, ignored on receive.

	if len(data) < AdmissionHeaderSize+roomLen {
		return nil, ErrFrameTooShort
	}
	if len(data) > AdmissionHeaderSize+roomLen {
		return nil, ErrTrailingData
	}

	room := data[AdmissionHeaderSize : AdmissionHeaderSize+roomLen]
	if !utf8.Valid(room) {
		return nil, ErrInvalidUTF8
	}

	return &AdmissionRequest{Op: op, Room: string(room)}, nil
}

// ReadAdmission reads exactly one admission frame from the reader.
// It reads the 3-byte header first, then exactly the advertised number of
// room name bytes, so a well-behaved client is never over-read.
func ReadAdmission(r io.Reader) (*AdmissionRequest, error) {
	var header [AdmissionHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTooShort
		}
		return nil, err
	}

	roomLen := int(header[0])
	if roomLen == 0 {
		return nil, ErrEmptyRoomName
	}

	op := Operation(header[1])
	if !op.Valid() {
		return nil, ErrUnknownOperation
	}

	room := make([]byte, roomLen)
	if _, err := io.ReadFull(r, room); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTooShort
		}
		return nil, err
	}
	if !utf8.Valid(room) {
		return nil, ErrInvalidUTF8
	}

	return &AdmissionRequest{Op: op, Room: string(room)}, nil
}

// Encode serializes the request to its wire form.
// Returns nil if the room name is empty or exceeds MaxNameLen.
func (r *AdmissionRequest) Encode() []byte {
	roomLen := len(r.Room)
	if roomLen == 0 || roomLen > MaxNameLen {
		return nil
	}

	buf := make([]byte, AdmissionHeaderSize+roomLen)
	buf[0] = byte(roomLen)
	buf[1] = byte(r.Op)
	buf[2] = 0 // reserved state byte
	copy(buf[AdmissionHeaderSize:], r.Room)
	return buf
}
