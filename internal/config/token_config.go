package config

import "time"

const devJWTSecret = "plantclassifier-dev-secret"

type TokenConfig interface {
	GetJWTSecret() string
	GetTokenIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Token struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"plantclassifier"`
	AccessExpiry  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

var _ TokenConfig = Token{}

// Sanitize fills a development secret when none is configured in DEV.
// Outside DEV an empty secret is left for the server to reject.
func (t *Token) Sanitize(dev bool) {
	if t.JWTSecret == "" && dev {
		t.JWTSecret = devJWTSecret
	}
	if t.Issuer == "" {
		t.Issuer = "plantclassifier"
	}
	if t.AccessExpiry <= 0 {
		t.AccessExpiry = 15 * time.Minute
	}
	if t.RefreshExpiry <= 0 {
		t.RefreshExpiry = 7 * 24 * time.Hour
	}
}

func (t Token) GetJWTSecret() string {
	return t.JWTSecret
}

func (t Token) GetTokenIssuer() string {
	return t.Issuer
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.AccessExpiry
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.RefreshExpiry
}
