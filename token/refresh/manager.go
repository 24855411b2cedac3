package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenLength = 32

var (
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrExpiredToken = errors.New("refresh token expired")
)

// Manager handles refresh token creation, rotation and revocation
type Manager struct {
	repo Repo
	ttl  time.Duration
}

func NewManager(repo Repo, ttl time.Duration) *Manager {
	return &Manager{
		repo: repo,
		ttl:  ttl,
	}
}

// Create generates a new refresh token for userID and stores its hash
func (m *Manager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	now := NowTimeFunc()
	if err := m.repo.Upsert(&StoredRefreshToken{
		ID:        uuid.New().String(),
		Hash:      Hash(tokenStr),
		UserID:    userID,
		Iat:       now,
		ExpiresAt: now.Add(m.ttl),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate consumes token and issues its replacement. A token can be rotated
// once; presenting it again yields ErrInvalidToken.
func (m *Manager) Rotate(token string) (userID, next string, err error) {
	stored, err := m.repo.Take(Hash(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	if NowTimeFunc().After(stored.ExpiresAt) {
		return "", "", ErrExpiredToken
	}

	next, err = m.Create(stored.UserID)
	if err != nil {
		return "", "", err
	}
	return stored.UserID, next, nil
}

// RevokeUser drops every refresh token held by userID
func (m *Manager) RevokeUser(userID string) error {
	return m.repo.DeleteByUserID(userID)
}

// Hash is the at-rest form of a refresh token.
func Hash(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
