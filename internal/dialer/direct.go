package dialer

import (
	"context"
	"fmt"
	"net"
)

type directDialer struct {
	cfg      Config
	resolver *Resolver
}

// NewDirectDialer returns a Dialer that connects straight to the target.
func NewDirectDialer(cfg Config) (Dialer, error) {
	return &directDialer{
		cfg:      cfg,
		resolver: NewResolver(cfg.ResolveCacheTTL, cfg.DialTimeout),
	}, nil
}

// DialContext resolves the host part of address and connects to the
// resolved addresses in order, returning the first that succeeds.
func (d *directDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: err}
	}

	if d.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.DialTimeout)
		defer cancel()
	}

	addrs, err := d.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Host: host, Err: err}
	}

	nd := net.Dialer{KeepAliveConfig: d.cfg.KeepAlive}

	var firstErr error
	for _, a := range addrs {
		conn, err := nd.DialContext(ctx, network, net.JoinHostPort(a.String(), port))
		if err == nil {
			return conn, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &ConnectError{Address: address, Err: fmt.Errorf("%d address(es) tried: %w", len(addrs), firstErr)}
}
