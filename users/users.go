package users

import (
	"strings"
	"time"
)

// User is the server-side identity record of the development backend.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	DateJoined time.Time `json:"-"`
	LastLogin  time.Time `json:"-"`
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an email address.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}
