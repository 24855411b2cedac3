package config

import (
	"sort"
	"strings"
)

type Cors struct {
	Origins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins returns the explicitly configured origins. Local
// development origins are admitted by the CORS middleware itself.
func (c Cors) GetAllowedOrigins() AllowedOrigins {
	allowed := AllowedOrigins{}
	for _, o := range c.Origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = nullValue{}
		}
	}
	return allowed
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
