package blocklist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads blocklist entries from r. Each line holds one or more
// whitespace-separated domains; text after '#' or ';' is a comment. Lines in
// hosts-file form ("0.0.0.0 ads.example") contribute only their hostnames,
// and a leading "*." is dropped since subdomains always match.
func Parse(r io.Reader) (*List, error) {
	var domains []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) > 1 && isSinkAddr(fields[0]) {
			fields = fields[1:]
		}

		for _, f := range fields {
			domains = append(domains, strings.TrimPrefix(f, "*."))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}

	return New(domains...), nil
}

// LoadFile reads and parses the blocklist file at path.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()

	l, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func isSinkAddr(s string) bool {
	switch s {
	case "0.0.0.0", "127.0.0.1", "::", "::1":
		return true
	}
	return false
}
