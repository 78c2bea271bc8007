// Package relay implements the UDP relay service: the datagram port
// where authenticated members exchange chat messages that the server
// fans out to the other members of their room.
//
// The relay is where lazy address binding happens. Admission cannot know
// which UDP port a client will chat from, so a member's datagram return
// address is recorded from the source address of its first valid chat
// datagram, and updated whenever a later datagram arrives from somewhere
// else. The relay is the only component that writes these addresses.
package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatwire/go-chat-relay/lib/protocol"
	"github.com/chatwire/go-chat-relay/lib/room"
	"github.com/chatwire/go-chat-relay/lib/util"
)

// Default configuration values.
const (
	// DefaultListenAddr is the default relay UDP listen address.
	DefaultListenAddr = ":9002"

	// DefaultThrottleSize is the default size of the Unauthorized-reply
	// throttle cache.
	DefaultThrottleSize = 1024

	// DefaultThrottleWindow is the minimum interval between Unauthorized
	// replies to one source address.
	DefaultThrottleWindow = time.Second
)

// Config holds the relay service configuration.
type Config struct {
	// ListenAddr is the UDP address to listen on.
	ListenAddr string

	// ThrottleSize is the Unauthorized-reply throttle cache size.
	ThrottleSize int

	// ThrottleWindow is the minimum interval between Unauthorized replies
	// to one source address (0 disables throttling).
	ThrottleWindow time.Duration
}

// Server is the relay service: a single receive loop on the datagram
// port that authenticates each chat frame against the registry, binds
// sender addresses, and fans frames out to co-members.
type Server struct {
	mu sync.Mutex

	config   Config
	registry room.Registry
	log      *logrus.Logger

	conn     net.PacketConn
	throttle *replyThrottle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	// onChat is called for each authenticated datagram (for tests).
	onChat func(frame *protocol.ChatFrame, from net.Addr)
}

// NewServer creates a new relay server.
// A nil logger discards all output.
func NewServer(config Config, registry room.Registry, log *logrus.Logger) (*Server, error) {
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.ThrottleSize <= 0 {
		config.ThrottleSize = DefaultThrottleSize
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	throttle, err := newReplyThrottle(config.ThrottleSize, config.ThrottleWindow)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:   config,
		registry: registry,
		log:      log,
		throttle: throttle,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start binds the datagram socket and begins the receive loop.
// Non-blocking; the loop runs until Close.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRelayClosed
	}
	if s.conn != nil {
		return fmt.Errorf("relay already started")
	}

	conn, err := net.ListenPacket("udp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP %s: %w", s.config.ListenAddr, err)
	}
	s.conn = conn

	s.wg.Add(1)
	go s.receiveLoop(conn)

	return nil
}

// receiveLoop continuously receives and processes chat datagrams.
// Receive errors other than shutdown are logged and the loop continues.
func (s *Server) receiveLoop(conn net.PacketConn) {
	defer s.wg.Done()

	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.log.WithError(err).Warn("Relay receive error")
				continue
			}
		}
		if n == 0 {
			continue
		}

		s.handleDatagram(conn, buf[:n], src)
	}
}

// handleDatagram processes one received chat datagram.
func (s *Server) handleDatagram(conn net.PacketConn, data []byte, src net.Addr) {
	frame, err := protocol.ParseChat(data)
	if err != nil {
		// Malformed datagrams are dropped silently; there is no sender
		// identity to reply to.
		s.log.WithError(err).WithField("src", src.String()).Debug("Dropping malformed datagram")
		return
	}

	member, ok := s.registry.Authenticate(frame.Room, frame.Token)
	if !ok {
		s.replyUnauthorized(conn, src, frame)
		return
	}

	if s.registry.BindAddress(frame.Room, frame.Token, src) {
		s.log.WithFields(logrus.Fields{
			"room":  frame.Room,
			"token": member.Token,
			"addr":  src.String(),
		}).Debug("Bound member datagram address")
	}

	if s.onChat != nil {
		s.onChat(frame, src)
	}

	s.fanout(conn, frame)
}

// replyUnauthorized answers an unauthenticated datagram, subject to the
// per-source throttle. Unknown room and unknown token get the same reply
// and the registry is left untouched.
func (s *Server) replyUnauthorized(conn net.PacketConn, src net.Addr, frame *protocol.ChatFrame) {
	s.log.WithError(util.ErrUnauthorized).WithFields(logrus.Fields{
		"room": frame.Room,
		"src":  src.String(),
	}).Debug("Unauthorized datagram")

	if !s.throttle.Allow(src.String()) {
		return
	}
	if _, err := conn.WriteTo([]byte(protocol.ReplyUnauthorized), src); err != nil {
		s.log.WithError(err).WithField("src", src.String()).Debug("Unauthorized reply failed")
	}
}

// fanout relays the frame to every other bound member of the room.
// The recipient list is a registry snapshot; the lock is released before
// any send so a slow socket cannot stall admissions. The outbound frame
// keeps the sender's token so recipients can identify the speaker.
func (s *Server) fanout(conn net.PacketConn, frame *protocol.ChatFrame) {
	recipients := s.registry.MembersExcept(frame.Room, frame.Token)
	if len(recipients) == 0 {
		return
	}

	out := frame.Encode()
	if out == nil {
		return
	}

	sent := 0
	for _, m := range recipients {
		if _, err := conn.WriteTo(out, m.Addr); err != nil {
			// Best effort per recipient; keep going.
			s.log.WithError(err).WithFields(logrus.Fields{
				"room": frame.Room,
				"to":   m.Addr.String(),
			}).Warn("Fanout send failed")
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{
		"room":   frame.Room,
		"sender": frame.Token,
		"sent":   sent,
	}).Debug("Relayed chat datagram")
}

// Addr returns the local address the relay is bound to, nil if not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Close stops the receive loop and releases the socket.
// Safe to call multiple times.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		conn.Close()
	}
	s.wg.Wait()
	return nil
}

// ErrRelayClosed is returned when Start is called after Close.
var ErrRelayClosed = fmt.Errorf("relay is closed")
