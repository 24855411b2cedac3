package config

import (
	"strings"
	"time"
)

const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"

	defaultClientTimeout = 15 * time.Second
)

type ClientConfig interface {
	GetAPIURL() string
	GetHTTPTimeout() time.Duration
	GetDevFallback() bool
}

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionDir() string
	GetSessionRedisAddr() string
	GetSessionRedisPassword() string
	GetSessionRedisDB() int
	GetSessionTTL() time.Duration
}

type Client struct {
	APIURL      string        `env:"API_URL"`
	HTTPTimeout time.Duration `env:"CLIENT_HTTP_TIMEOUT" envDefault:"15s"`
	DevFallback bool          `env:"CLIENT_DEV_FALLBACK" envDefault:"false"`
}

var _ ClientConfig = Client{}

func (c *Client) Sanitize() {
	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultClientTimeout
	}
}

// GetAPIURL is the raw backend location; empty selects the client default.
func (c Client) GetAPIURL() string {
	return c.APIURL
}

func (c Client) GetHTTPTimeout() time.Duration {
	return c.HTTPTimeout
}

// GetDevFallback enables the local mock session when sign-in cannot reach
// the backend. It only applies in the DEV environment.
func (c Client) GetDevFallback() bool {
	return c.DevFallback
}

type Session struct {
	Backend       string        `env:"SESSION_BACKEND" envDefault:"file"`
	Dir           string        `env:"SESSION_DIR"`
	RedisAddr     string        `env:"SESSION_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"SESSION_REDIS_PASSWORD"`
	RedisDB       int           `env:"SESSION_REDIS_DB" envDefault:"0"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"0s"`
}

var _ SessionConfig = Session{}

func (s *Session) Sanitize() {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case SessionBackendFile, SessionBackendRedis, SessionBackendMemory:
	default:
		s.Backend = SessionBackendFile
	}
	if s.RedisDB < 0 {
		s.RedisDB = 0
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
}

func (s Session) GetSessionBackend() string {
	return s.Backend
}

// GetSessionDir is empty when the file store should use its default location.
func (s Session) GetSessionDir() string {
	return s.Dir
}

func (s Session) GetSessionRedisAddr() string {
	return s.RedisAddr
}

func (s Session) GetSessionRedisPassword() string {
	return s.RedisPassword
}

func (s Session) GetSessionRedisDB() int {
	return s.RedisDB
}

// GetSessionTTL bounds how long a Redis-held session lives; zero keeps it
// until sign-out.
func (s Session) GetSessionTTL() time.Duration {
	return s.TTL
}
