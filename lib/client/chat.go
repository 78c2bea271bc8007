package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/chatwire/go-chat-relay/lib/protocol"
)

// QuitCommand terminates an interactive chat session (case-insensitive).
const QuitCommand = "/quit"

// Session is a datagram chat session: one UDP socket shared by a reader
// and a writer, addressed to one room with one token.
type Session struct {
	conn   net.PacketConn
	server net.Addr
	room   string
	token  string

	closeOnce sync.Once
}

// NewSession binds the chat socket and prepares a session for the given
// room membership. If preferredPort is nonzero the socket is bound to it
// when free (typically the admission connection's former local port);
// otherwise, or when that port is taken, any free port is used. The
// server discovers the actual address from the first datagram.
func NewSession(serverAddr, roomName, token string, preferredPort int) (*Session, error) {
	server, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving relay server %s", serverAddr)
	}

	var conn net.PacketConn
	if preferredPort > 0 {
		conn, err = net.ListenPacket("udp", ":"+strconv.Itoa(preferredPort))
	}
	if conn == nil {
		conn, err = net.ListenPacket("udp", ":0")
	}
	if err != nil {
		return nil, oops.Wrapf(err, "binding chat socket")
	}

	return &Session{
		conn:   conn,
		server: server,
		room:   roomName,
		token:  token,
	}, nil
}

// Send encodes one chat frame and sends it to the server.
func (s *Session) Send(message []byte) error {
	frame := &protocol.ChatFrame{Room: s.room, Token: s.token, Message: message}
	data := frame.Encode()
	if data == nil {
		return oops.Errorf("cannot encode chat frame for room %q", s.room)
	}
	if _, err := s.conn.WriteTo(data, s.server); err != nil {
		return oops.Wrapf(err, "sending chat datagram")
	}
	return nil
}

// Receive blocks until the next chat frame from another member arrives.
// Datagrams that do not decode (such as server error notices) and the
// session's own echoes are skipped.
func (s *Session) Receive() (*protocol.ChatFrame, error) {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			return nil, err
		}

		frame, err := protocol.ParseChat(buf[:n])
		if err != nil {
			continue
		}
		if frame.Token == s.token {
			continue
		}
		return frame, nil
	}
}

// LocalAddr returns the chat socket's local address.
func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close releases the chat socket. Safe to call multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// Run pumps the interactive session: a reader goroutine displays
// incoming messages as "[room] sender: message" while the calling
// goroutine forwards input lines, until QuitCommand or input EOF.
// Closing the socket on exit unblocks the reader.
func (s *Session) Run(input io.Reader, output io.Writer) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			frame, err := s.Receive()
			if err != nil {
				return
			}
			fmt.Fprintf(output, "[%s] %s: %s\n", frame.Room, frame.Token, frame.Message)
		}
	}()

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.EqualFold(line, QuitCommand) {
			break
		}
		if err := s.Send([]byte(line)); err != nil {
			s.Close()
			<-done
			return err
		}
	}

	s.Close()
	<-done
	return scanner.Err()
}
