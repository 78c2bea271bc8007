package protocol

import "errors"

// ErrEmptyToken indicates a chat frame with a zero token length.
// A token is minted non-empty at admission, so an empty one can never
// authenticate.
var ErrEmptyToken = errors.New("empty token")

// ChatFrame is the decoded chat datagram. Wire layout:
//
//	byte 0           : room name length R (1..255)
//	byte 1           : token length T (1..255)
//	bytes 2..2+R     : room name (UTF-8)
//	bytes 2+R..2+R+T : token
//	bytes 2+R+T..    : message (UTF-8, may be empty)
//
// The same frame travels in both directions: clients address it with
// their own token, and the relay fans it out unchanged, so recipients see
// the sender's token and use it to identify the speaker.
type ChatFrame struct {
	Room    string
	Token   string
	Message []byte
}

// ParseChat decodes a chat frame from one datagram.
// A datagram shorter than 2 + R + T bytes is malformed; a datagram of
// exactly that size carries an empty message and is valid.
func ParseChat(data []byte) (*ChatFrame, error) {
	if len(data) < ChatHeaderSize {
		return nil, ErrFrameTooShort
	}

	roomLen := int(data[0])
	tokenLen := int(data[1])
	if roomLen == 0 {
		return nil, ErrEmptyRoomName
	}
	if tokenLen == 0 {
		return nil, ErrEmptyToken
	}
	if len(data) < ChatHeaderSize+roomLen+tokenLen {
		return nil, ErrFrameTooShort
	}

	room := data[ChatHeaderSize : ChatHeaderSize+roomLen]
	token := data[ChatHeaderSize+roomLen : ChatHeaderSize+roomLen+tokenLen]
	message := data[ChatHeaderSize+roomLen+tokenLen:]

	// Copy the message out of the receive buffer; the caller reuses it.
	msg := make([]byte, len(message))
	copy(msg, message)

	return &ChatFrame{
		Room:    string(room),
		Token:   string(token),
		Message: msg,
	}, nil
}

// Encode serializes the frame to its wire form.
// Returns nil if the room name or token is empty or exceeds MaxNameLen.
func (f *ChatFrame) Encode() []byte {
	roomLen := len(f.Room)
	tokenLen := len(f.Token)
	if roomLen == 0 || roomLen > MaxNameLen {
		return nil
	}
	if tokenLen == 0 || tokenLen > MaxNameLen {
		return nil
	}

	buf := make([]byte, ChatHeaderSize+roomLen+tokenLen+len(f.Message))
	buf[0] = byte(roomLen)
	buf[1] = byte(tokenLen)
	copy(buf[ChatHeaderSize:], f.Room)
	copy(buf[ChatHeaderSize+roomLen:], f.Token)
	copy(buf[ChatHeaderSize+roomLen+tokenLen:], f.Message)
	return buf
}
