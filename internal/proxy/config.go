package proxy

import (
	"net"
	"time"

	"github.com/die-net/sieve/internal/dialer"
)

// Filter decides whether requests for host are refused.
type Filter interface {
	IsBlocked(host string) bool
}

type Config struct {
	// NegotiationTimeout bounds reading the request and writing error
	// responses.
	NegotiationTimeout time.Duration

	// IdleTimeout closes a relay once neither direction has moved a byte
	// for this long. Zero disables it.
	IdleTimeout time.Duration

	// MaxConns caps concurrently handled connections. Zero is unbounded.
	MaxConns int

	// ErrorResponses sends 400/502/503 replies instead of closing silently.
	ErrorResponses bool

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer
	Filter Filter

	// Verbose logs per-connection errors.
	Verbose bool
}
