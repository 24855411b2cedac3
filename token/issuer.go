package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrinos/plantclassifier/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var ErrInvalidAccessToken = errors.New("invalid access token")

// Claims is the payload of an access token.
type Claims struct {
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies the short-lived access tokens of the development backend.
type Issuer struct {
	signer Signer
	issuer string
	ttl    time.Duration
}

func NewIssuer(signer Signer, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		signer: signer,
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs an access token for user.
func (i *Issuer) Issue(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of raw and returns its claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidAccessToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	}
	return claims, nil
}
