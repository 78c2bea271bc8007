// Package admission implements the TCP admission service: the stream
// port where clients create or join rooms and receive their membership
// token.
//
// Each connection carries exactly one admission frame and one reply; the
// socket is never held open across requests. Connections are handled in
// parallel and serialize only at the room registry.
package admission

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatwire/go-chat-relay/lib/protocol"
	"github.com/chatwire/go-chat-relay/lib/room"
	"github.com/chatwire/go-chat-relay/lib/util"
)

// Default configuration values.
const (
	// DefaultListenAddr is the default admission TCP listen address.
	DefaultListenAddr = ":9001"

	// DefaultReadTimeout is the read deadline for the admission frame.
	// A client that connects and never sends is cut off without any
	// registry mutation.
	DefaultReadTimeout = 5 * time.Second
)

// Config holds the admission service configuration.
type Config struct {
	// ListenAddr is the TCP address to listen on.
	ListenAddr string

	// ReadTimeout is the per-connection read deadline (0 = no deadline).
	ReadTimeout time.Duration

	// MaxConnections caps concurrent admission connections (0 = no limit).
	MaxConnections int
}

// Server is the admission service. It accepts stream connections, decodes
// one admission frame per connection, mints the member token from the
// peer's stream-side IP, mutates the registry, and replies.
type Server struct {
	config   Config
	registry room.Registry
	log      *logrus.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// NewServer creates a new admission server.
// A nil logger discards all output.
func NewServer(config Config, registry room.Registry, log *logrus.Logger) *Server {
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Server{
		config:   config,
		registry: registry,
		log:      log,
		conns:    make(map[net.Conn]struct{}),
	}
}

// ListenAndServe starts listening on the configured address and serves
// clients. This method blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Listen binds the listening socket without serving. Use together with
// Serve when the caller needs the bind error synchronously.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

// Serve accepts connections on the listener and handles them.
// With a nil listener it serves on the socket bound by Listen.
// This method blocks until the server is closed.
func (s *Server) Serve(listener net.Listener) error {
	if listener != nil {
		s.mu.Lock()
		s.listener = listener
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		listener = s.listener
		s.mu.Unlock()
		if listener == nil {
			return util.ErrServerClosed
		}
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil // Server was closed
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		if !s.canAccept() {
			conn.Close()
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// canAccept returns true if the server can accept a new connection.
func (s *Server) canAccept() bool {
	if s.config.MaxConnections == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns) < s.config.MaxConnections
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

// handleConnection processes a single admission connection:
// read frame, mutate registry, reply, close.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	remote := conn.RemoteAddr().String()

	if s.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			return
		}
	}

	// ReadAdmission reads at most 3+255 bytes, so a bounded read limit
	// is enforced by the frame format itself.
	req, err := protocol.ReadAdmission(conn)
	if err != nil {
		s.rejectConnection(conn, remote, err)
		return
	}

	peerIP, _, err := net.SplitHostPort(remote)
	if err != nil {
		s.log.WithError(err).WithField("remote", remote).Warn("Cannot parse peer address")
		return
	}

	reply := s.admit(req, peerIP, remote)
	if _, err := conn.Write(reply); err != nil {
		s.log.WithError(util.NewConnectionError(remote, "write reply", err)).
			Warn("Admission reply failed")
	}
}

// admit performs the registry mutation and builds the reply.
// The registry is not mutated on any error path before this point.
func (s *Server) admit(req *protocol.AdmissionRequest, peerIP, remote string) []byte {
	switch req.Op {
	case protocol.OpCreate:
		member, err := s.registry.Create(req.Room, peerIP)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"room":   req.Room,
				"remote": remote,
			}).Debug("Create rejected: room exists")
			return []byte(protocol.ReplyRoomExists)
		}
		s.log.WithFields(logrus.Fields{
			"room":  req.Room,
			"token": member.Token,
		}).Info("Room created")
		return protocol.CreatedReply(member.Token)

	case protocol.OpJoin:
		member, err := s.registry.Join(req.Room, peerIP)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"room":   req.Room,
				"remote": remote,
			}).Debug("Join rejected: room not found")
			return []byte(protocol.ReplyRoomNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"room":  req.Room,
			"token": member.Token,
		}).Info("Member joined")
		return protocol.JoinedReply(member.Token)

	default:
		// Unreachable: ReadAdmission rejects unknown operations.
		return []byte(protocol.ReplyBadRequest)
	}
}

// rejectConnection answers a malformed admission attempt.
// Protocol errors get a plain-text error line if the socket still
// accepts writes; read timeouts and transport errors close silently.
func (s *Server) rejectConnection(conn net.Conn, remote string, err error) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.log.WithField("remote", remote).Debug("Admission read deadline expired")
		return
	}
	if errors.Is(err, io.EOF) {
		return
	}

	s.log.WithError(err).WithField("remote", remote).Debug("Rejecting admission frame")
	_, _ = conn.Write([]byte(protocol.ReplyBadRequest))
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ConnectionCount returns the number of in-flight admission connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops accepting, closes in-flight connections, and waits for
// handlers to finish.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	s.mu.Lock()
	listener := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	for _, c := range conns {
		c.Close()
	}

	s.wg.Wait()
	return nil
}
