package dialer

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds name resolution plus TCP connect.
	DialTimeout time.Duration

	// NegotiationTimeout bounds the handshake with a parent proxy.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	// ResolveCacheTTL is how long successful lookups are reused. Zero
	// disables the cache.
	ResolveCacheTTL time.Duration
}
