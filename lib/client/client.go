// Package client implements the chat client core: the one-shot admission
// round trip over TCP and the datagram chat session that follows it.
package client

import (
	"net"
	"time"

	"github.com/samber/oops"

	"github.com/chatwire/go-chat-relay/lib/protocol"
)

// DefaultTimeout bounds the admission round trip.
const DefaultTimeout = 10 * time.Second

// Admission is the result of a successful CREATE or JOIN.
type Admission struct {
	// Token is the server-minted membership token.
	Token string

	// LocalPort is the local port the admission connection used. The
	// chat session may try to reuse it for the UDP bind so the client's
	// two channels look alike to operators; the server learns the real
	// address from the first datagram either way.
	LocalPort int
}

// Admit dials the admission port, sends one CREATE/JOIN frame, and reads
// the reply. The connection is closed before returning; admission is a
// single request/reply exchange by protocol.
func Admit(serverAddr string, op protocol.Operation, roomName string, timeout time.Duration) (*Admission, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	frame := (&protocol.AdmissionRequest{Op: op, Room: roomName}).Encode()
	if frame == nil {
		return nil, oops.Errorf("room name must be 1..%d bytes", protocol.MaxNameLen)
	}

	conn, err := net.DialTimeout("tcp", serverAddr, timeout)
	if err != nil {
		return nil, oops.Wrapf(err, "dialing admission server %s", serverAddr)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(frame); err != nil {
		return nil, oops.Wrapf(err, "sending admission frame")
	}

	buf := make([]byte, protocol.MaxAdmissionFrameSize+64)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, oops.Wrapf(err, "reading admission reply")
	}

	token, err := protocol.ParseReply(buf[:n])
	if err != nil {
		return nil, err
	}

	localPort := 0
	if tcpAddr, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		localPort = tcpAddr.Port
	}

	return &Admission{Token: token, LocalPort: localPort}, nil
}
