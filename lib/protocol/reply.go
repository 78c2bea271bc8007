package protocol

import (
	"errors"
	"strings"
)

// Admission reply parse errors.
var (
	ErrEmptyReply    = errors.New("empty admission reply")
	ErrRejectedReply = errors.New("admission rejected")
)

// CreatedReply builds the CREATE success reply carrying the host token.
func CreatedReply(token string) []byte {
	return []byte(ReplyRoomCreated + " " + token)
}

// JoinedReply builds the JOIN success reply carrying the guest token.
func JoinedReply(token string) []byte {
	return []byte(ReplyJoinedRoom + " " + token)
}

// ParseReply interprets a server admission reply on the client side.
// Success is recognized by the "Room created" / "Joined room" prefix and
// the token is the final whitespace-delimited field. Failure replies are
// returned as ErrRejectedReply wrapping the server's text.
func ParseReply(data []byte) (token string, err error) {
	text := strings.TrimRight(string(data), "\r\n")
	if text == "" {
		return "", ErrEmptyReply
	}

	if strings.HasPrefix(text, ReplyRoomCreated) || strings.HasPrefix(text, ReplyJoinedRoom) {
		fields := strings.Fields(text)
		token := fields[len(fields)-1]
		// A bare success prefix with no token field is malformed.
		if token == "created" || token == "room" {
			return "", ErrEmptyReply
		}
		return token, nil
	}

	return "", &ReplyError{Text: text}
}

// ReplyError carries a failure reply's text while matching
// ErrRejectedReply under errors.Is.
type ReplyError struct {
	Text string
}

// Error implements the error interface.
func (e *ReplyError) Error() string {
	return "admission rejected: " + e.Text
}

// Is reports ErrRejectedReply equivalence for errors.Is.
func (e *ReplyError) Is(target error) bool {
	return target == ErrRejectedReply
}
