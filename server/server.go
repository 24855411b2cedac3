// Package server is the development backend of the plant classifier. It
// serves the auth, analysis and knowledge-base routes the API client talks to,
// issuing short-lived JWT access tokens and rotating refresh tokens.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agrinos/plantclassifier/internal/config"
	"github.com/agrinos/plantclassifier/token"
	"github.com/agrinos/plantclassifier/token/refresh"
	"github.com/agrinos/plantclassifier/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos groups the storage the server depends on.
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
}

type Server struct {
	env      string
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	log      zerolog.Logger
	repos    Repos
	issuer   *token.Issuer
	refresh  *refresh.Manager
	records  *Records
	registry *prometheus.Registry
	metrics  *Metrics
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithRegistry serves and registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func New(cfg config.Config, repos Repos, opts ...Option) (*Server, error) {
	if repos.Users == nil || repos.RefreshTokens == nil {
		return nil, errors.New("[Server New] user and refresh token repos are required")
	}
	if cfg.GetJWTSecret() == "" {
		return nil, errors.New("[Server New] JWT_SECRET must be set outside DEV")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		log:     log.Logger,
		repos:   repos,
		issuer:  token.NewIssuer(token.NewHMACSigner(cfg.GetJWTSecret()), cfg.GetTokenIssuer(), cfg.GetAccessTokenExpiry()),
		refresh: refresh.NewManager(repos.RefreshTokens, cfg.GetRefreshTokenExpiry()),
		records: NewRecords(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		if err := s.registry.Register(collectors.NewGoCollector()); err != nil {
			return nil, fmt.Errorf("[Server New] failed to register go collector: %w", err)
		}
	}
	metrics, err := NewMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to register metrics: %w", err)
	}
	s.metrics = metrics

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.RecoverMiddleware, s.LoggingMiddleware, s.CorsMiddleware)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "*", route
		}
		s.log.Debug().Msgf("[%-16s] %s", colourMethod(method), path)
	}
}
