// Package dialer opens upstream connections for the proxy.
//
// The direct dialer resolves the target name and connects to the first
// resolved address that accepts, reporting name resolution and TCP connect
// failures as distinct error types ([ResolutionError], [ConnectError]).
// Parent-proxy dialers chain through an HTTP CONNECT or SOCKS5 server
// instead.
package dialer
