package blocklist

import (
	"strings"
)

// List is an immutable set of blocked domains. It is safe for concurrent use
// because nothing mutates it after construction; reloads build a new List and
// swap it in through a Holder.
type List struct {
	domains map[string]struct{}
}

// New builds a List from domains. Entries that fail normalization are
// skipped, duplicates collapse.
func New(domains ...string) *List {
	l := &List{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		n, err := Normalize(d)
		if err != nil {
			continue
		}
		l.domains[n] = struct{}{}
	}
	return l
}

// Len returns the number of distinct entries.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.domains)
}

// IsBlocked reports whether host equals an entry or is a subdomain of one,
// i.e. host == d or host ends with "." + d. An empty host is never blocked.
func (l *List) IsBlocked(host string) bool {
	if l.Len() == 0 || host == "" {
		return false
	}

	h, err := Normalize(host)
	if err != nil {
		// Names IDNA rejects still get the parent walk.
		h = normalizeLabels(host)
		if h == "" {
			return false
		}
	}

	for {
		if _, ok := l.domains[h]; ok {
			return true
		}
		i := strings.IndexByte(h, '.')
		if i == -1 {
			return false
		}
		h = h[i+1:]
	}
}
