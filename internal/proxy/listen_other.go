//go:build !linux

package proxy

import (
	"context"
	"net"
)

// listenBacklog ignores backlog on platforms where the socket is not built
// by hand. Go's listeners already set SO_REUSEADDR.
func listenBacklog(addr string, _ int) (net.Listener, error) {
	lc := net.ListenConfig{}
	return lc.Listen(context.Background(), "tcp", addr)
}
