package config

import (
	"strings"
)

const devEnv = "DEV"

type EnvVars struct {
	Env      string `env:"ENV" envDefault:"DEV"`
	AppName  string `env:"APP_NAME" envDefault:"Plant Classifier"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e *EnvVars) Sanitize() {
	e.Env = strings.ToUpper(strings.TrimSpace(e.Env))
	if e.Env == "" {
		e.Env = devEnv
	}
	e.Port = strings.TrimPrefix(strings.TrimSpace(e.Port), ":")
	if e.Port == "" {
		e.Port = "8080"
	}
	e.LogLevel = strings.ToLower(strings.TrimSpace(e.LogLevel))
}

// GetPort returns the listen address, e.g. ":8080".
func (e EnvVars) GetPort() string {
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return e.Env == devEnv
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
