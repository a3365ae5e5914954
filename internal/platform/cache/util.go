package cache

import (
	"net/url"
	"strings"
)

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// hostKey reduces a URL to the lowercased host[:port] its resolution depends on.
func hostKey(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	key := safe(strings.ToLower(u.Hostname()))
	if p := u.Port(); p != "" {
		key += ":" + p
	}
	return key, true
}
