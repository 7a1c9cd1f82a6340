package proxy

import (
	"fmt"
	"io"
	"net/http"
)

const (
	responseEstablished = "HTTP/1.1 200 Connection Established\r\n\r\n"
	responseBlocked     = "HTTP/1.1 403 Forbidden\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nBlocked by proxy.\n"
)

// writeError writes a minimal close-delimited response in the style of
// http.Error for use on a raw connection.
func writeError(w io.Writer, code int, msg string) error {
	_, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\nContent-Type: text/plain; charset=utf-8\r\nConnection: close\r\n\r\n%s\n", code, http.StatusText(code), msg)
	return err
}
