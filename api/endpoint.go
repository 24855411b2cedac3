package api

import "strings"

const (
	// APIRoot is appended to the configured base URL unless already present.
	APIRoot = "/api"

	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8080" + APIRoot
)

const (
	PathSignIn            = "/auth/manual"
	PathSignOut           = "/auth/logout"
	PathRefresh           = "/auth/refresh"
	PathMe                = "/auth/me"
	PathPredict           = "/predict"
	PathPredictionHistory = "/predict/history"
	PathSensorHistory     = "/sensor/history"
	PathPlants            = "/plant"
)

// ResolveBaseURL normalises a configured base URL so it always ends with the
// API root and never with a slash.
func ResolveBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if strings.HasSuffix(trimmed, APIRoot) {
		return trimmed
	}
	return trimmed + APIRoot
}
