package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	ClientConfig
	SessionConfig
	TokenConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Client
	Session
	Token
}

// New returns the configuration read from the process environment.
func New() (Config, error) {
	var cfg mainConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Load reads an optional .env file from the working directory before New.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}
	return New()
}

// Sanitize applies defaults and guardrails to values loaded from env.
func (c *mainConfig) Sanitize() {
	c.EnvVars.Sanitize()
	c.Client.Sanitize()
	c.Session.Sanitize()
	c.Token.Sanitize(c.IsDev())
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
