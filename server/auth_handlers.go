package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agrinos/plantclassifier/token/refresh"
	"github.com/agrinos/plantclassifier/users"
)

type manualAuthRequest struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  users.Role `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   *users.User `json:"user"`
	Tokens tokenPair   `json:"tokens"`
}

// ManualAuthHandler signs a user in by email, creating the account on first use.
func (s *Server) ManualAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manualAuthRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		email := users.NormalizeEmail(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "A valid email is required")
			return
		}
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid role")
			return
		}

		now := NowTimeFunc()
		user, err := s.repos.Users.GetByEmail(email)
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			user = &users.User{Email: email, DateJoined: now}
		case err != nil:
			s.log.Err(err).Str("email", email).Msg("Failed to look up user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		user.Role = req.Role
		if name := strings.TrimSpace(req.Name); name != "" {
			user.Name = name
		} else if user.Name == "" {
			user.Name = users.DefaultName(email)
		}
		user.LastLogin = now
		if err := s.repos.Users.Upsert(user); err != nil {
			s.log.Err(err).Str("email", email).Msg("Failed to store user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		pair, err := s.issuePair(user)
		if err != nil {
			s.log.Err(err).Str("user_id", user.ID).Msg("Failed to issue tokens")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user signed in")
		writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: pair})
	}
}

// RefreshHandler rotates a refresh token. The presented token is consumed.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.RefreshToken) == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}

		userID, next, err := s.refresh.Rotate(req.RefreshToken)
		if err != nil {
			s.metrics.recordToken(tokenRejected)
			if errors.Is(err, refresh.ErrInvalidToken) || errors.Is(err, refresh.ErrExpiredToken) {
				writeError(w, http.StatusUnauthorized, "Invalid refresh token")
				return
			}
			s.log.Err(err).Msg("Failed to rotate refresh token")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		user, err := s.repos.Users.GetByID(userID)
		if err != nil {
			s.metrics.recordToken(tokenRejected)
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		access, err := s.issuer.Issue(user)
		if err != nil {
			s.log.Err(err).Str("user_id", userID).Msg("Failed to issue access token")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.metrics.recordToken(tokenRotated)
		writeJSON(w, http.StatusOK, tokenPair{AccessToken: access, RefreshToken: next})
	}
}

// LogoutHandler revokes every refresh token of the caller.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		if err := s.refresh.RevokeUser(claims.Subject); err != nil {
			s.log.Err(err).Str("user_id", claims.Subject).Msg("Failed to revoke refresh tokens")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.metrics.recordToken(tokenRevoked)
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		user, err := s.repos.Users.GetByID(claims.Subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unknown user")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) issuePair(user *users.User) (tokenPair, error) {
	access, err := s.issuer.Issue(user)
	if err != nil {
		return tokenPair{}, err
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		return tokenPair{}, err
	}
	s.metrics.recordToken(tokenIssued)
	return tokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}
