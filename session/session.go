// Package session holds the persisted identity of the signed-in user and the
// storage contract every backend (file, Redis, memory) implements.
//
// A Session is either fully present or absent. Stores only ever replace the
// whole record, so readers never observe credentials without a user.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrinos/plantclassifier/users"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// StorageKey names the single persisted slot.
const StorageKey = "plant_classifier_session"

var ErrIncompleteSession = errors.New("incomplete session")

// User is the identity record returned by the backend.
type User struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  users.Role `json:"role"`
}

// Credentials is the opaque bearer pair issued at sign-in and on every refresh.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Session struct {
	User        User        `json:"user"`
	Credentials Credentials `json:"tokens"`
}

// Validate reports whether s is complete enough to be persisted.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil session", ErrIncompleteSession)
	}
	if strings.TrimSpace(s.User.ID) == "" {
		return fmt.Errorf("%w: missing user id", ErrIncompleteSession)
	}
	if !s.User.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrIncompleteSession, s.User.Role)
	}
	if strings.TrimSpace(s.Credentials.AccessToken) == "" {
		return fmt.Errorf("%w: missing access token", ErrIncompleteSession)
	}
	return nil
}

// WithCredentials returns a copy of s carrying creds. The user is preserved.
func (s Session) WithCredentials(creds Credentials) *Session {
	s.Credentials = creds
	return &s
}

func (c Credentials) HasRefreshToken() bool {
	return strings.TrimSpace(c.RefreshToken) != ""
}

// AccessTokenExpiry returns the exp claim of a JWT access token without
// verifying its signature. Opaque tokens report false.
func (c Credentials) AccessTokenExpiry() (time.Time, bool) {
	if c.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(c.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
