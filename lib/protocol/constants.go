// Package protocol implements the chat relay wire formats: the binary
// admission frame sent over the TCP control port, the binary chat frame
// exchanged over the UDP relay port, and the ASCII admission replies.
//
// Both binary frames are length-prefixed with single bytes and are
// self-delimiting within one TCP receive / one UDP datagram respectively.
package protocol

// Operation is the admission operation code carried in byte 1 of the
// admission frame. The operation set is closed; any other value is a
// protocol error.
type Operation byte

// Admission operations.
const (
	// OpCreate requests creation of a new room; the requester becomes host.
	OpCreate Operation = 1

	// OpJoin requests membership in an existing room.
	OpJoin Operation = 2
)

// String returns a human-readable operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpJoin:
		return "JOIN"
	default:
		return "UNKNOWN"
	}
}

// Valid returns true if the operation is part of the closed operation set.
func (op Operation) Valid() bool {
	return op == OpCreate || op == OpJoin
}

// Frame size constants.
const (
	// AdmissionHeaderSize is the fixed prefix of an admission frame:
	// room name length, operation, and the reserved state byte.
	AdmissionHeaderSize = 3

	// ChatHeaderSize is the fixed prefix of a chat frame:
	// room name length and token length.
	ChatHeaderSize = 2

	// MaxNameLen bounds room names and tokens; both must fit a one-byte
	// length prefix.
	MaxNameLen = 255

	// MaxAdmissionFrameSize is the largest possible admission frame.
	MaxAdmissionFrameSize = AdmissionHeaderSize + MaxNameLen

	// MaxDatagramSize is the receive buffer size for chat datagrams.
	// The protocol contract only requires 4096; 64 KiB covers any
	// datagram a UDP socket can deliver.
	MaxDatagramSize = 65536
)

// Admission reply texts. Success replies are followed by a space and the
// minted token; clients extract the token as the final whitespace-delimited
// field.
const (
	ReplyRoomCreated  = "Room created"
	ReplyJoinedRoom   = "Joined room"
	ReplyRoomExists   = "Room already exists"
	ReplyRoomNotFound = "Room not found"
	ReplyBadRequest   = "Invalid request"

	// ReplyUnauthorized is sent on the relay port when a chat datagram
	// fails authentication.
	ReplyUnauthorized = "Unauthorized"
)
