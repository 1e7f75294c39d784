// Package identity derives the anonymous visitor key used for unique-user
// counting.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"unicode/utf8"
)

const (
	// MaxUserKeyLength bounds explicit keys, in characters.
	MaxUserKeyLength = 64

	// derivedKeyLength is the number of hex characters kept from the hash.
	derivedKeyLength = 32
)

// ClientIP returns the first X-Forwarded-For entry when present, otherwise
// the peer address without its port.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// UserKey returns explicit verbatim (truncated) when it is non-empty.
// Otherwise it hashes ip and userAgent, so identical anonymous requests
// collapse to the same key. Both empty still yields a constant key.
func UserKey(explicit, ip, userAgent string) string {
	if explicit != "" {
		return Truncate(explicit, MaxUserKeyLength)
	}

	sum := sha256.Sum256([]byte(ip + userAgent))
	return hex.EncodeToString(sum[:])[:derivedKeyLength]
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
