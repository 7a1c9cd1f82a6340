package blocklist

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var errEmptyHost = errors.New("empty host")

// Normalize converts a hostname (no scheme, port or path) to the canonical
// form used for both blocklist entries and lookups: lowercase ASCII, no
// trailing dot, IDNs in punycode and IPv6 literals without brackets.
func Normalize(host string) (string, error) {
	host = strings.TrimSpace(host)

	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", errEmptyHost
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if isASCII(host) {
		return strings.ToLower(host), nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("idna %q: %w", host, err)
	}
	return strings.ToLower(ascii), nil
}

// normalizeLabels is the lenient form of Normalize used for lookups. Each
// label is converted on its own and labels IDNA rejects are kept lowercased
// as-is, so the parent domains still compare equal to normalized entries.
func normalizeLabels(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	labels := strings.Split(host, ".")
	for i, label := range labels {
		if isASCII(label) {
			continue
		}
		if ascii, err := idna.Lookup.ToASCII(label); err == nil {
			labels[i] = strings.ToLower(ascii)
		}
	}
	return strings.Join(labels, ".")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
