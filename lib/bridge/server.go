package bridge

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/chatwire/go-chat-relay/lib/admission"
	"github.com/chatwire/go-chat-relay/lib/relay"
	"github.com/chatwire/go-chat-relay/lib/room"
)

// Server is the chat relay server: the admission and relay services plus
// the room registry they share. The registry is the only shared state;
// neither service blocks the other outside the registry lock.
type Server struct {
	config    *Config
	log       *logrus.Logger
	registry  room.Registry
	admission *admission.Server
	relay     *relay.Server

	errCh  chan error
	done   chan struct{}
	closed atomic.Bool
}

// NewServer creates a new chat relay server with the given configuration.
// A nil logger discards all output.
func NewServer(config *Config, log *logrus.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	registry := room.NewRegistry()

	relayServer, err := relay.NewServer(config.relayConfig(), registry, log)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:    config,
		log:       log,
		registry:  registry,
		admission: admission.NewServer(config.admissionConfig(), registry, log),
		relay:     relayServer,
		errCh:     make(chan error, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start binds both sockets and begins serving. Bind failures on either
// port are returned synchronously; later accept-loop failures surface on
// Err. Non-blocking.
func (s *Server) Start() error {
	if err := s.relay.Start(); err != nil {
		return err
	}
	if err := s.admission.Listen(); err != nil {
		s.relay.Close()
		return err
	}

	s.log.WithFields(logrus.Fields{
		"admission": s.admission.Addr(),
		"relay":     s.relay.Addr().String(),
	}).Info("Chat relay listening")

	go func() {
		if err := s.admission.Serve(nil); err != nil {
			s.errCh <- err
		}
	}()

	return nil
}

// Err surfaces a fatal serve error from the admission accept loop.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Registry returns the shared room registry.
func (s *Server) Registry() room.Registry {
	return s.registry
}

// AdmissionAddr returns the admission listener address.
func (s *Server) AdmissionAddr() string {
	return s.admission.Addr()
}

// RelayAddr returns the relay socket address, nil if not started.
func (s *Server) RelayAddr() net.Addr {
	return s.relay.Addr()
}

// Close shuts the server down: stop accepting admissions, close the
// relay socket, wait for in-flight handlers, then clear the registry.
// Room state is held in memory only and does not survive this call.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	if err := s.admission.Close(); err != nil {
		s.log.WithError(err).Warn("Error closing admission service")
	}
	if err := s.relay.Close(); err != nil {
		s.log.WithError(err).Warn("Error closing relay service")
	}
	if err := s.registry.Close(); err != nil {
		s.log.WithError(err).Warn("Error clearing registry")
	}

	close(s.done)
	return nil
}

// Done returns a channel that is closed when the server shuts down.
func (s *Server) Done() <-chan struct{} {
	return s.done
}
