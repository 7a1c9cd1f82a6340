package dialer

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const defaultLookupTimeout = 10 * time.Second

var errNoAddresses = errors.New("no addresses")

type lookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver resolves hostnames for the direct dialer. Concurrent lookups of
// the same name share one query, and successful answers are cached for the
// configured TTL.
type Resolver struct {
	lookup  lookupFunc
	timeout time.Duration
	cache   *cache.Cache
	sf      singleflight.Group
}

// NewResolver returns a Resolver backed by net.DefaultResolver.
func NewResolver(ttl, timeout time.Duration) *Resolver {
	return newResolver(net.DefaultResolver.LookupIPAddr, ttl, timeout)
}

func newResolver(lookup lookupFunc, ttl, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	r := &Resolver{lookup: lookup, timeout: timeout}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r
}

// LookupIPAddr returns the addresses for host. IP literals are returned
// as-is without a query.
func (r *Resolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(host); ok {
			return v.([]net.IPAddr), nil
		}
	}

	// The shared query outlives any single caller's cancellation.
	ch := r.sf.DoChan(host, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		addrs, err := r.lookup(lctx, host)
		if err != nil {
			return nil, err
		}
		if len(addrs) == 0 {
			return nil, errNoAddresses
		}
		if r.cache != nil {
			r.cache.SetDefault(host, addrs)
		}
		return addrs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]net.IPAddr), nil
	}
}
