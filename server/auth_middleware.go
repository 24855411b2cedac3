package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/agrinos/plantclassifier/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := s.issuer.Verify(raw)
			if err != nil {
				s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected access token")
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// claimsFromContext returns the claims injected by RequireAuth.
func claimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}
