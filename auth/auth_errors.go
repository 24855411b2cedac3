package auth

import "errors"

var (
	ErrMissingOAuthTokens = errors.New("oauth redirect is missing accessToken or refreshToken")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidEmail       = errors.New("email is required")
)
