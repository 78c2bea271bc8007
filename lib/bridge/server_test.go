package bridge

import (
	"testing"
	"time"

	"github.com/chatwire/go-chat-relay/lib/client"
	"github.com/chatwire/go-chat-relay/lib/protocol"
)

func startBridge(t *testing.T) *Server {
	t.Helper()

	cfg := DefaultConfig().
		WithAdmissionAddr("127.0.0.1:0").
		WithRelayAddr("127.0.0.1:0")

	server, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

// receive wraps Session.Receive with a timeout; the session has no
// deadline of its own.
func receive(t *testing.T, session *client.Session) *protocol.ChatFrame {
	t.Helper()

	type result struct {
		frame *protocol.ChatFrame
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		frame, err := session.Receive()
		ch <- result{frame, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("Receive() error: %v", r.err)
		}
		return r.frame
	case <-time.After(2 * time.Second):
		t.Fatal("Receive() timed out")
		return nil
	}
}

// waitForBinding polls until the member's datagram address is known.
func waitForBinding(t *testing.T, server *Server, room, token string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range server.Registry().Members(room) {
			if m.Token == token && m.Bound() {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("member %s in room %q never bound", token, room)
}

func TestServer_CreateJoinAndChat(t *testing.T) {
	server := startBridge(t)

	host, err := client.Admit(server.AdmissionAddr(), protocol.OpCreate, "lobby", time.Second)
	if err != nil {
		t.Fatalf("Admit(create) error: %v", err)
	}
	if host.Token != "host_127.0.0.1" {
		t.Errorf("host token = %q, want host_127.0.0.1", host.Token)
	}

	guest, err := client.Admit(server.AdmissionAddr(), protocol.OpJoin, "lobby", time.Second)
	if err != nil {
		t.Fatalf("Admit(join) error: %v", err)
	}
	if guest.Token != "guest_127.0.0.1_1" {
		t.Errorf("guest token = %q, want guest_127.0.0.1_1", guest.Token)
	}

	relayAddr := server.RelayAddr().String()
	hostSession, err := client.NewSession(relayAddr, "lobby", host.Token, 0)
	if err != nil {
		t.Fatalf("NewSession(host) error: %v", err)
	}
	defer hostSession.Close()
	guestSession, err := client.NewSession(relayAddr, "lobby", guest.Token, 0)
	if err != nil {
		t.Fatalf("NewSession(guest) error: %v", err)
	}
	defer guestSession.Close()

	// The host's first datagram binds its address; the guest is not bound
	// yet, so nobody hears this one.
	if err := hostSession.Send([]byte("hello")); err != nil {
		t.Fatalf("host Send() error: %v", err)
	}
	waitForBinding(t, server, "lobby", host.Token)

	if err := guestSession.Send([]byte("hi there")); err != nil {
		t.Fatalf("guest Send() error: %v", err)
	}
	frame := receive(t, hostSession)
	if frame.Room != "lobby" || frame.Token != guest.Token || string(frame.Message) != "hi there" {
		t.Errorf("host received %+v", frame)
	}

	if err := hostSession.Send([]byte("welcome")); err != nil {
		t.Fatalf("host Send() error: %v", err)
	}
	frame = receive(t, guestSession)
	if frame.Token != host.Token || string(frame.Message) != "welcome" {
		t.Errorf("guest received %+v", frame)
	}
}

func TestServer_AdmissionRejections(t *testing.T) {
	server := startBridge(t)

	if _, err := client.Admit(server.AdmissionAddr(), protocol.OpCreate, "dup", time.Second); err != nil {
		t.Fatalf("Admit(create) error: %v", err)
	}

	tests := []struct {
		name string
		op   protocol.Operation
		room string
	}{
		{"duplicate create", protocol.OpCreate, "dup"},
		{"join missing room", protocol.OpJoin, "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.Admit(server.AdmissionAddr(), tt.op, tt.room, time.Second); err == nil {
				t.Error("Admit() = nil error, want rejection")
			}
		})
	}
}

func TestServer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig().WithRelayAddr("")
	if _, err := NewServer(cfg, nil); err == nil {
		t.Error("NewServer(invalid config) = nil error")
	}
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	server := startBridge(t)

	if err := server.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	select {
	case <-server.Done():
	default:
		t.Error("Done() not closed after Close()")
	}
	if rooms := server.Registry().Rooms(); len(rooms) != 0 {
		t.Errorf("registry not cleared: %v", rooms)
	}
}
