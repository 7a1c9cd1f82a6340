// Package blocklist holds the set of domains the proxy refuses to connect to.
//
// A [List] is built once from a domains file and never mutated. Matching is
// suffix-domain: "example.com" blocks "example.com" and "a.b.example.com" but
// not "notexample.com". A [Holder] publishes the current List to concurrent
// connection handlers and a [Reloader] swaps in a fresh List when the file
// changes or on SIGHUP.
package blocklist
