package proxy

import (
	"net"
	"testing"
)

func TestListenTCP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		backlog int
	}{
		{name: "backlog", addr: "127.0.0.1:0", backlog: 10},
		{name: "system backlog", addr: "127.0.0.1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ln, err := ListenTCP(tt.addr, tt.backlog, net.KeepAliveConfig{Enable: true})
			if err != nil {
				t.Fatal(err)
			}
			defer ln.Close()

			if _, ok := ln.(*KeepAliveListener); !ok {
				t.Fatalf("got %T, want *KeepAliveListener", ln)
			}

			accepted := make(chan error, 1)
			go func() {
				c, err := ln.Accept()
				if err == nil {
					_ = c.Close()
				}
				accepted <- err
			}()

			c, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				t.Fatal(err)
			}
			_ = c.Close()

			if err := <-accepted; err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestListenTCPAddrInUse(t *testing.T) {
	t.Parallel()

	ln, err := ListenTCP("127.0.0.1:0", 10, net.KeepAliveConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if ln2, err := ListenTCP(ln.Addr().String(), 10, net.KeepAliveConfig{}); err == nil {
		_ = ln2.Close()
		t.Fatal("expected error listening on a bound address")
	}
}

func TestOnceCloseConn(t *testing.T) {
	t.Parallel()

	a, _ := tcpPair(t)
	c := &onceCloseConn{Conn: a}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	// A second Close reports the first result instead of a closed-conn error.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAfterHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "CONNECT a:443 HTTP/1.1\r\n\r\n", want: ""},
		{in: "CONNECT a:443 HTTP/1.1\r\n\r\n\x16\x03\x01", want: "\x16\x03\x01"},
		{in: "CONNECT a:443 HTTP/1.1\r\nHost: a", want: ""},
	}

	for _, tt := range tests {
		if got := string(afterHeaders([]byte(tt.in))); got != tt.want {
			t.Errorf("afterHeaders(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
