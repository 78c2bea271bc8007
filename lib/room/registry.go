package room

import (
	"net"
	"sync"

	"github.com/chatwire/go-chat-relay/lib/util"
)

// Registry manages all chat rooms and their members.
// Thread-safe for concurrent access from the admission and relay paths;
// every operation is atomic with respect to every other.
type Registry interface {
	// Create inserts a new room whose host is a member admitted from the
	// given peer IP, and returns the new host member.
	// The error matches util.ErrRoomExists if the name is taken.
	Create(room, peerIP string) (Member, error)

	// Join appends a guest member admitted from the given peer IP to an
	// existing room, and returns the new guest member.
	// The error matches util.ErrRoomNotFound if the room does not exist.
	Join(room, peerIP string) (Member, error)

	// Authenticate returns the member iff the token is present in the
	// named room. A token absent from the registry is unauthenticated.
	Authenticate(room, token string) (Member, bool)

	// BindAddress records the member's datagram return address, setting it
	// on first use and updating it when the source address changes.
	// Returns true if the stored address changed.
	BindAddress(room, token string, addr net.Addr) bool

	// MembersExcept returns all members of the room with a bound datagram
	// address whose token differs from the given one. The result is a
	// snapshot; callers send to it after the registry lock is released.
	MembersExcept(room, token string) []Member

	// Members returns a snapshot of the room's members in join order,
	// host first. Returns nil if the room does not exist.
	Members(room string) []Member

	// MemberCount returns the number of members in the room, 0 if absent.
	MemberCount(room string) int

	// Rooms returns all room names.
	Rooms() []string

	// Close clears the registry. Called once at server shutdown.
	Close() error
}

// RegistryImpl is the concrete implementation of Registry.
type RegistryImpl struct {
	mu    sync.RWMutex
	rooms map[string]*chatRoom
}

// chatRoom holds one room's members in join order plus a token index for
// O(1) authentication. The host is always members[0].
type chatRoom struct {
	members []*Member
	byToken map[string]*Member
}

// NewRegistry creates a new empty room registry.
func NewRegistry() *RegistryImpl {
	return &RegistryImpl{
		rooms: make(map[string]*chatRoom),
	}
}

// Create inserts a new room with a single host member.
// Token minting happens under the lock so uniqueness per room can never race.
func (r *RegistryImpl) Create(room, peerIP string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room]; exists {
		return Member{}, util.NewRegistryError(room, "create", util.ErrRoomExists)
	}

	host := &Member{Token: HostToken(peerIP), IsHost: true}
	r.rooms[room] = &chatRoom{
		members: []*Member{host},
		byToken: map[string]*Member{host.Token: host},
	}
	return *host, nil
}

// Join appends a guest member to an existing room.
func (r *RegistryImpl) Join(room, peerIP string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cr, exists := r.rooms[room]
	if !exists {
		return Member{}, util.NewRegistryError(room, "join", util.ErrRoomNotFound)
	}

	guest := &Member{Token: GuestToken(peerIP, len(cr.members))}
	if _, dup := cr.byToken[guest.Token]; dup {
		// The count suffix makes this unreachable; guard anyway.
		return Member{}, util.NewRegistryError(room, "join", util.ErrDuplicateToken)
	}

	cr.members = append(cr.members, guest)
	cr.byToken[guest.Token] = guest
	return *guest, nil
}

// Authenticate looks up the (room, token) pair.
func (r *RegistryImpl) Authenticate(room, token string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, exists := r.rooms[room]
	if !exists {
		return Member{}, false
	}
	m, ok := cr.byToken[token]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// BindAddress sets or updates the member's datagram return address.
func (r *RegistryImpl) BindAddress(room, token string, addr net.Addr) bool {
	if addr == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cr, exists := r.rooms[room]
	if !exists {
		return false
	}
	m, ok := cr.byToken[token]
	if !ok {
		return false
	}

	if m.Addr != nil && m.Addr.String() == addr.String() {
		return false
	}
	m.Addr = addr
	return true
}

// MembersExcept snapshots the fanout targets for one received datagram.
func (r *RegistryImpl) MembersExcept(room, token string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, exists := r.rooms[room]
	if !exists {
		return nil
	}

	out := make([]Member, 0, len(cr.members))
	for _, m := range cr.members {
		if m.Token == token || m.Addr == nil {
			continue
		}
		out = append(out, *m)
	}
	return out
}

// Members returns a snapshot of the room's members in join order.
func (r *RegistryImpl) Members(room string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, exists := r.rooms[room]
	if !exists {
		return nil
	}

	out := make([]Member, 0, len(cr.members))
	for _, m := range cr.members {
		out = append(out, *m)
	}
	return out
}

// MemberCount returns the number of members in the room.
func (r *RegistryImpl) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, exists := r.rooms[room]
	if !exists {
		return 0
	}
	return len(cr.members)
}

// Rooms returns all room names.
func (r *RegistryImpl) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	return names
}

// Has returns true if the named room exists.
func (r *RegistryImpl) Has(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.rooms[room]
	return exists
}

// Close clears the registry. Room state is not persisted anywhere.
func (r *RegistryImpl) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = make(map[string]*chatRoom)
	return nil
}
