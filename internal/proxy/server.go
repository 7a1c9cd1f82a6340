package proxy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Server accepts proxy clients and runs one handler per connection.
type Server struct {
	ctx context.Context
	cfg Config
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewServer constructs a Server. Canceling ctx stops Serve and closes every
// active relay.
func NewServer(ctx context.Context, cfg Config) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Server{ctx: ctx, cfg: cfg}
	if cfg.MaxConns > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConns))
	}
	return s
}

// Serve accepts connections on ln until ln is closed or the server context
// is done, then waits for active handlers to return. It closes ln on exit.
func (s *Server) Serve(ln net.Listener) error {
	stop := context.AfterFunc(s.ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()
	defer ln.Close()

	var tempDelay time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() { //nolint:staticcheck // Same retry policy as net/http.
				tempDelay = min(max(2*tempDelay, 5*time.Millisecond), time.Second)
				log.Printf("proxy: accept error: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		tempDelay = 0

		if s.sem != nil && !s.sem.TryAcquire(1) {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.reject(c)
			}()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if s.sem != nil {
				defer s.sem.Release(1)
			}
			if err := s.handle(c); err != nil && s.cfg.Verbose {
				log.Printf("proxy: %s: %v", c.RemoteAddr(), err)
			}
		}()
	}
}

// reject turns away a connection that arrived while MaxConns handlers were
// busy.
func (s *Server) reject(c net.Conn) {
	defer c.Close()
	if s.cfg.Verbose {
		log.Printf("proxy: %s: rejected, %d connections active", c.RemoteAddr(), s.cfg.MaxConns)
	}
	if !s.cfg.ErrorResponses {
		return
	}
	s.setWriteDeadline(c)
	_ = writeError(c, http.StatusServiceUnavailable, "too many connections")
}

func (s *Server) setWriteDeadline(c net.Conn) {
	if s.cfg.NegotiationTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}
}
