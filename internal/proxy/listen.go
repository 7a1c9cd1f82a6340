package proxy

import (
	"context"
	"fmt"
	"net"
)

// ListenTCP listens on addr with SO_REUSEADDR and the given accept backlog
// and returns a net.Listener that applies keepAliveConfig to accepted TCP
// connections. A backlog of zero or less uses the system default.
func ListenTCP(addr string, backlog int, keepAliveConfig net.KeepAliveConfig) (net.Listener, error) {
	var (
		ln  net.Listener
		err error
	)
	if backlog > 0 {
		ln, err = listenBacklog(addr, backlog)
	} else {
		lc := net.ListenConfig{}
		ln, err = lc.Listen(context.Background(), "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", addr, err)
	}

	return &KeepAliveListener{Listener: ln, KeepAliveConfig: keepAliveConfig}, nil
}

// KeepAliveListener wraps a net.Listener and applies KeepAliveConfig to any
// accepted *net.TCPConn.
type KeepAliveListener struct {
	net.Listener
	net.KeepAliveConfig
}

func (l *KeepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAliveConfig(l.KeepAliveConfig)
	}

	return conn, nil
}
