package relay

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// replyThrottle rate-limits Unauthorized replies per source address.
// Datagram sources are trivially spoofable, so unthrottled error replies
// would let an attacker use the relay as a reflector. The cache is a
// fixed-size LRU; evicting an old source merely allows it one extra reply.
type replyThrottle struct {
	window time.Duration
	cache  *lru.Cache[string, time.Time]

	// now is swappable for tests.
	now func() time.Time
}

func newReplyThrottle(size int, window time.Duration) (*replyThrottle, error) {
	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &replyThrottle{
		window: window,
		cache:  cache,
		now:    time.Now,
	}, nil
}

// Allow reports whether a reply may be sent to the address, and records
// the attempt when it may.
func (t *replyThrottle) Allow(addr string) bool {
	now := t.now()
	if last, ok := t.cache.Get(addr); ok && now.Sub(last) < t.window {
		return false
	}
	t.cache.Add(addr, now)
	return true
}
