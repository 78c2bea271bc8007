// Package room implements the in-memory room registry shared by the
// admission and relay services.
//
// The registry is the only state shared between the two I/O paths. Every
// operation takes the registry lock, and every accessor returns copies,
// so callers never hold references into shared state. Rooms and members
// live until the registry is closed at server shutdown; there is no host
// departure teardown and no idle expiry.
package room

import "net"

// Member is one participant of a room: the token minted at admission,
// the datagram return address, and the host flag.
//
// Addr is nil until the member's first valid chat datagram arrives; the
// admission phase cannot know which UDP port the client will use, so the
// relay binds the address lazily (and rebinds it when the source address
// of a later datagram differs).
type Member struct {
	Token  string
	Addr   net.Addr
	IsHost bool
}

// Bound returns true once the member's datagram address is known.
func (m Member) Bound() bool {
	return m.Addr != nil
}
