package transform

import (
	"net/url"
	"strings"
)

var placeholderHostPrefixes = []string{"localhost", "example", "test"}

// ValidURL applies the strict check used for optional URL fields: http or
// https, a dotted hostname with an alphabetic TLD of at least two letters, and
// no placeholder-looking host.
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return false
	}
	tld := host[strings.LastIndex(host, ".")+1:]
	if len(tld) < 2 || !isAlpha(tld) {
		return false
	}

	bare := strings.TrimPrefix(host, "www.")
	for _, prefix := range placeholderHostPrefixes {
		if strings.HasPrefix(bare, prefix) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
