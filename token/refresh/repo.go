package refresh

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record of an issued refresh token.
// Only the hash of the token is kept; the client holds the token itself.
type StoredRefreshToken struct {
	ID        string
	Hash      string
	UserID    string
	Iat       time.Time
	ExpiresAt time.Time
}

// Repo stores refresh token records keyed by token hash.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	// Take removes and returns the record for hash in one step, so a token
	// can be consumed at most once.
	Take(hash string) (*StoredRefreshToken, error)
	DeleteByUserID(userID string) error
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
