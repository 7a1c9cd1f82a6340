package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/die-net/sieve/internal/request"
)

var errEmptyRequest = errors.New("connection closed before request")

// handle runs the lifecycle of one client connection. The returned error
// is for logging only; any reply to the client has already been written.
func (s *Server) handle(conn net.Conn) error {
	client := &onceCloseConn{Conn: conn}
	defer client.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = client.SetDeadline(time.Now()) })
	defer stop()

	raw, err := s.readRequest(client)
	if err != nil {
		if errors.Is(err, errEmptyRequest) {
			return nil
		}
		return err
	}

	req, err := request.Parse(raw)
	if err != nil {
		s.fail(client, http.StatusBadRequest, err)
		return err
	}

	if s.cfg.Filter != nil && s.cfg.Filter.IsBlocked(req.Host) {
		log.Printf("BLOCKED: %s", req.Host)
		s.setWriteDeadline(client)
		if _, err := io.WriteString(client, responseBlocked); err != nil {
			return fmt.Errorf("write blocked response: %w", err)
		}
		return nil
	}

	addr := req.Address()
	up, err := s.cfg.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		s.fail(client, http.StatusBadGateway, err)
		return fmt.Errorf("%s %s: %w", req.Method, addr, err)
	}
	upstream := &onceCloseConn{Conn: up}
	defer upstream.Close()
	log.Printf("connected: %s", addr)

	if !req.IsTunnel {
		return RelayHTTP(ctx, client, upstream, req.Raw, s.cfg.IdleTimeout)
	}

	s.setWriteDeadline(client)
	if _, err := io.WriteString(client, responseEstablished); err != nil {
		return &RelayError{Op: "write established", Err: err}
	}
	_ = client.SetWriteDeadline(time.Time{})

	// Some clients send tunnel bytes without waiting for the 200.
	if early := afterHeaders(req.Raw); len(early) > 0 {
		if _, err := upstream.Write(early); err != nil {
			return &RelayError{Op: "forward early data", Err: err}
		}
	}

	return Tunnel(ctx, client, upstream, s.cfg.IdleTimeout)
}

// readRequest performs the single initial read of up to relayBufferSize
// bytes.
func (s *Server) readRequest(c net.Conn) ([]byte, error) {
	if s.cfg.NegotiationTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	bp := relayBuffers.Get()
	defer relayBuffers.Put(bp)

	n, err := c.Read(*bp)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, errEmptyRequest
		}
		return nil, fmt.Errorf("read request: %w", err)
	}
	_ = c.SetReadDeadline(time.Time{})

	return bytes.Clone((*bp)[:n]), nil
}

// fail reports err to the client when error responses are enabled.
func (s *Server) fail(c net.Conn, code int, err error) {
	if !s.cfg.ErrorResponses {
		return
	}
	s.setWriteDeadline(c)
	_ = writeError(c, code, err.Error())
}

// afterHeaders returns whatever followed the request header block in b.
func afterHeaders(b []byte) []byte {
	i := bytes.Index(b, []byte("\r\n\r\n"))
	if i < 0 {
		return nil
	}
	return b[i+4:]
}

// onceCloseConn makes Close idempotent so the handler and the relay can
// both release a conn while the socket is closed exactly once.
type onceCloseConn struct {
	net.Conn
	once sync.Once
	err  error
}

func (c *onceCloseConn) Close() error {
	c.once.Do(func() { c.err = c.Conn.Close() })
	return c.err
}
