// Package proxy implements the sieve forward proxy server.
//
// Each accepted connection carries exactly one request. The handler reads
// the first block of bytes, parses the request line, consults the
// blocklist and then either tunnels raw bytes (CONNECT) or forwards the
// request once and streams the response back (plain HTTP).
package proxy
