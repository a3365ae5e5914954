package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Fingerprint identifies a detection session: the requesting identity plus
// the SHA-256 of the canonical URL.
type Fingerprint struct {
	Identity string
	URLHash  string
}

// NewFingerprint derives the fingerprint of rawURL for identity.
func NewFingerprint(identity, rawURL string) Fingerprint {
	return Fingerprint{Identity: identity, URLHash: HashURL(rawURL)}
}

// Key is the storage key of the fingerprint.
func (f Fingerprint) Key() string {
	return f.Identity + ":" + f.URLHash
}

// HashURL returns the hex SHA-256 of the canonical form of rawURL.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(CanonicalURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// CanonicalURL trims rawURL, lower-cases scheme and host and drops the fragment.
// Input that does not parse as an absolute URL is returned trimmed.
func CanonicalURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
