package session

import (
	"context"
	"net/url"
	"strings"
)

// Store persists the single session slot.
//
// Read never fails: a missing or corrupt slot reads as absent.
// Write replaces the whole record atomically and rejects incomplete sessions.
type Store interface {
	Read(ctx context.Context) (*Session, bool)
	Write(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// OriginKey derives a filesystem and key safe name for the origin of rawURL,
// e.g. "https://api.example.com:8443/api" -> "https_api.example.com_8443".
func OriginKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "default"
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	key := scheme + "_" + u.Hostname()
	if port := u.Port(); port != "" {
		key += "_" + port
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
