// Package request parses the first block of bytes a proxy client sends into
// the method, target host, port and path the proxy needs to route it.
//
// Only the request line is inspected. For non-CONNECT requests the host is
// always taken from the request target (absolute-form, e.g.
// "http://example.com/path"); the Host header is never consulted, so
// origin-form targets such as "/index.html" are rejected.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrMalformedRequest is returned for input that does not carry a usable
// method and target.
var ErrMalformedRequest = errors.New("malformed request")

const (
	defaultHTTPPort    = 80
	defaultHTTPSPort   = 443
	defaultConnectPort = 443
)

// Request is the routing information extracted from a client's first read.
type Request struct {
	Method   string
	Host     string
	Port     int
	Path     string
	IsTunnel bool

	// Raw holds the bytes the request was parsed from, as received.
	Raw []byte
}

// Address returns the upstream host:port for r.
func (r Request) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Parse extracts a Request from b, which may be a partial read.
func Parse(b []byte) (Request, error) {
	line := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		line = b[:i]
	}

	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return Request{}, fmt.Errorf("%w: missing method or target", ErrMalformedRequest)
	}
	method, target := fields[0], fields[1]

	req := Request{Method: method, Raw: b}

	var err error
	if strings.EqualFold(method, "CONNECT") {
		req.IsTunnel = true
		req.Host, req.Port, err = splitHostPort(target, defaultConnectPort)
	} else {
		req.Host, req.Port, req.Path, err = parseTarget(target)
	}
	if err != nil {
		return Request{}, err
	}

	return req, nil
}

// parseTarget handles absolute-form targets ("http://host:port/path") and the
// scheme-less "host/path" form some clients send.
func parseTarget(target string) (host string, port int, path string, err error) {
	rest := target
	defPort := defaultHTTPPort
	if i := strings.Index(rest, "://"); i >= 0 {
		if strings.EqualFold(rest[:i], "https") {
			defPort = defaultHTTPSPort
		}
		rest = rest[i+3:]
	}

	authority := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}

	// Drop userinfo.
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		authority = authority[at+1:]
	}

	host, port, err = splitHostPort(authority, defPort)
	if err != nil {
		return "", 0, "", err
	}
	return host, port, path, nil
}

// splitHostPort splits hostport on its last colon, falling back to defPort
// when there is none. Bracketed IPv6 literals are unwrapped.
func splitHostPort(hostport string, defPort int) (string, int, error) {
	host, portStr := hostport, ""

	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", 0, fmt.Errorf("%w: unterminated ipv6 literal %q", ErrMalformedRequest, hostport)
		}
		host = hostport[1:end]
		switch after := hostport[end+1:]; {
		case after == "":
		case after[0] == ':':
			portStr = after[1:]
			if portStr == "" {
				return "", 0, fmt.Errorf("%w: empty port in %q", ErrMalformedRequest, hostport)
			}
		default:
			return "", 0, fmt.Errorf("%w: bad authority %q", ErrMalformedRequest, hostport)
		}
	} else if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		host, portStr = hostport[:i], hostport[i+1:]
		if portStr == "" {
			return "", 0, fmt.Errorf("%w: empty port in %q", ErrMalformedRequest, hostport)
		}
	}

	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host", ErrMalformedRequest)
	}

	port := defPort
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return "", 0, fmt.Errorf("%w: invalid port %q", ErrMalformedRequest, portStr)
		}
		port = p
	}

	return host, port, nil
}
