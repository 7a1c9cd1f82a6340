package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const relayBufferSize = 8192

var relayBuffers = newBufferPool(relayBufferSize)

var (
	// ErrRelayIO matches any *RelayError.
	ErrRelayIO = errors.New("relay i/o failed")

	// ErrIdleTimeout is wrapped in the *RelayError returned when a relay is
	// closed for inactivity.
	ErrIdleTimeout = errors.New("idle timeout")
)

// RelayError reports a read or write failure while moving bytes between
// client and upstream.
type RelayError struct {
	Op  string
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
}

func (e *RelayError) Unwrap() []error {
	return []error{ErrRelayIO, e.Err}
}

// Tunnel copies bytes in both directions between client and upstream until
// either side reaches EOF, fails, or ctx is done. Both conns are closed
// before Tunnel returns. A clean EOF or a cancellation returns nil.
func Tunnel(ctx context.Context, client, upstream net.Conn, idle time.Duration) error {
	p := newPair(client, upstream)
	return p.run(ctx, idle, func(g *errgroup.Group) {
		g.Go(func() error {
			defer p.close()
			return p.pump(upstream, client, "client->upstream")
		})
		g.Go(func() error {
			defer p.close()
			return p.pump(client, upstream, "upstream->client")
		})
	})
}

// RelayHTTP writes raw to upstream once and then streams upstream's reply
// to client until upstream reaches EOF. Both conns are closed before
// RelayHTTP returns.
func RelayHTTP(ctx context.Context, client, upstream net.Conn, raw []byte, idle time.Duration) error {
	p := newPair(client, upstream)
	if _, err := upstream.Write(raw); err != nil {
		p.close()
		return &RelayError{Op: "forward request", Err: err}
	}
	return p.run(ctx, idle, func(g *errgroup.Group) {
		g.Go(func() error {
			defer p.close()
			return p.pump(client, upstream, "upstream->client")
		})
	})
}

// pair is the client/upstream conn pair owned by one relay.
type pair struct {
	client   net.Conn
	upstream net.Conn

	closeOnce sync.Once
	closed    atomic.Bool

	lastActive atomic.Int64
	timedOut   atomic.Bool
}

func newPair(client, upstream net.Conn) *pair {
	p := &pair{client: client, upstream: upstream}
	p.touch()
	return p
}

func (p *pair) touch() {
	p.lastActive.Store(time.Now().UnixNano())
}

func (p *pair) close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		_ = p.client.Close()
		_ = p.upstream.Close()
	})
}

func (p *pair) run(ctx context.Context, idle time.Duration, start func(g *errgroup.Group)) error {
	stop := context.AfterFunc(ctx, p.close)
	defer stop()

	var g errgroup.Group
	start(&g)

	done := make(chan struct{})
	if idle > 0 {
		go p.watchIdle(idle, done)
	}

	err := g.Wait()
	close(done)
	p.close()

	if p.timedOut.Load() {
		return &RelayError{Op: "idle", Err: ErrIdleTimeout}
	}
	return err
}

// pump copies src to dst in relayBufferSize chunks. net.Conn.Write only
// returns early on error, so each chunk is written in full.
func (p *pair) pump(dst, src net.Conn, dir string) error {
	bp := relayBuffers.Get()
	defer relayBuffers.Put(bp)
	buf := *bp

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			p.touch()
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return p.ioError(dir+" write", werr)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return p.ioError(dir+" read", rerr)
		}
	}
}

// ioError drops errors caused by our own close of the pair.
func (p *pair) ioError(op string, err error) error {
	if p.closed.Load() {
		return nil
	}
	return &RelayError{Op: op, Err: err}
}

func (p *pair) watchIdle(idle time.Duration, done <-chan struct{}) {
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case <-timer.C:
		}

		since := time.Since(time.Unix(0, p.lastActive.Load()))
		if since >= idle {
			p.timedOut.Store(true)
			p.close()
			return
		}
		timer.Reset(idle - since)
	}
}
