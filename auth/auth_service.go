// Package auth drives the session lifecycle: sign-in, sign-up, sign-out, OAuth
// completion and read-only views of the signed-in user.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/agrinos/plantclassifier/api"
	"github.com/agrinos/plantclassifier/session"
	"github.com/agrinos/plantclassifier/users"
	"github.com/rs/zerolog"
)

const (
	defaultLogoutTimeout = 5 * time.Second

	devAccessToken  = "dev-access"
	devRefreshToken = "dev-refresh"
)

// Client is the part of the API client the service needs. *api.Client implements it.
type Client interface {
	SignIn(ctx context.Context, in api.SignInRequest) (*api.SignInResponse, error)
	SignOut(ctx context.Context) error
	MeWithCredentials(ctx context.Context, creds session.Credentials) (*session.User, error)
}

var _ Client = (*api.Client)(nil)

// sessionClearer is implemented by clients that order their own store writes
// against sign-out. Logout clears through it when available.
type sessionClearer interface {
	ClearSession(ctx context.Context) error
}

var _ sessionClearer = (*api.Client)(nil)

// Credentials is the sign-in and sign-up input.
type Credentials struct {
	Email string
	Name  string
	Role  users.DisplayRole
}

// CurrentUser is the signed-in identity as the dashboard shows it.
type CurrentUser struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        users.DisplayRole `json:"role"`
	BackendRole users.Role        `json:"backendRole"`
}

type Service struct {
	client        Client
	store         session.Store
	log           zerolog.Logger
	devFallback   bool
	logoutTimeout time.Duration
}

// ServiceOption customises the Service.
type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

// WithDevFallback persists a local mock session when the sign-in exchange
// fails, so the dashboard can be used without a backend.
func WithDevFallback(enabled bool) ServiceOption {
	return func(s *Service) {
		s.devFallback = enabled
	}
}

// WithLogoutTimeout bounds the remote sign-out call.
func WithLogoutTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.logoutTimeout = d
		}
	}
}

func NewService(client Client, store session.Store, opts ...ServiceOption) *Service {
	s := &Service{
		client:        client,
		store:         store,
		log:           zerolog.Nop(),
		logoutTimeout: defaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login signs in and persists the resulting session.
func (s *Service) Login(ctx context.Context, creds Credentials) (*CurrentUser, error) {
	user, err := s.signIn(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return user, nil
}

// Register signs up. The backend creates the account on first sign-in, so
// this shares the sign-in exchange.
func (s *Service) Register(ctx context.Context, creds Credentials) (*CurrentUser, error) {
	user, err := s.signIn(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return user, nil
}

func (s *Service) signIn(ctx context.Context, creds Credentials) (*CurrentUser, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if !creds.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, creds.Role)
	}

	resp, err := s.client.SignIn(ctx, api.SignInRequest{
		Email: email,
		Name:  strings.TrimSpace(creds.Name),
		Role:  creds.Role.Role(),
	})
	if err != nil {
		if s.devFallback {
			s.log.Warn().Err(err).Str("email", email).Msg("sign-in failed, using development session")
			return s.persist(ctx, devSession(email, creds))
		}
		return nil, err
	}
	return s.persist(ctx, resp.Session())
}

func devSession(email string, creds Credentials) *session.Session {
	return &session.Session{
		User: session.User{
			ID:    "dev-" + email,
			Email: email,
			Name:  strings.TrimSpace(creds.Name),
			Role:  creds.Role.Role(),
		},
		Credentials: session.Credentials{AccessToken: devAccessToken, RefreshToken: devRefreshToken},
	}
}

func (s *Service) persist(ctx context.Context, sess *session.Session) (*CurrentUser, error) {
	if err := s.store.Write(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return toCurrentUser(sess.User), nil
}

// Logout notifies the backend and clears the local session. The remote call
// is best effort: its failure is logged and never prevents the local clear.
func (s *Service) Logout(ctx context.Context) error {
	remoteCtx, cancel := context.WithTimeout(ctx, s.logoutTimeout)
	defer cancel()
	if err := s.client.SignOut(remoteCtx); err != nil {
		s.log.Debug().Err(err).Msg("remote sign-out failed, clearing local session anyway")
	}

	clearSession := s.store.Clear
	if c, ok := s.client.(sessionClearer); ok {
		clearSession = c.ClearSession
	}
	if err := clearSession(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CompleteOAuth finishes an external sign-in whose redirect delivered a
// credential pair in query. The identity is fetched with that pair before
// anything is persisted, so a failed handshake leaves the store untouched.
func (s *Service) CompleteOAuth(ctx context.Context, query url.Values) (*CurrentUser, error) {
	creds := session.Credentials{
		AccessToken:  strings.TrimSpace(query.Get("accessToken")),
		RefreshToken: strings.TrimSpace(query.Get("refreshToken")),
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, ErrMissingOAuthTokens
	}

	me, err := s.client.MeWithCredentials(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !me.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, me.Role)
	}
	return s.persist(ctx, &session.Session{User: *me, Credentials: creds})
}

// CurrentUser returns the stored identity, or false when signed out.
func (s *Service) CurrentUser(ctx context.Context) (*CurrentUser, bool) {
	sess, ok := s.store.Read(ctx)
	if !ok {
		return nil, false
	}
	return toCurrentUser(sess.User), true
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.store.Read(ctx)
	return ok
}

// Tokens returns the stored credential pair, or false when signed out.
func (s *Service) Tokens(ctx context.Context) (session.Credentials, bool) {
	sess, ok := s.store.Read(ctx)
	if !ok {
		return session.Credentials{}, false
	}
	return sess.Credentials, true
}

func toCurrentUser(u session.User) *CurrentUser {
	return &CurrentUser{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role.Display(),
		BackendRole: u.Role,
	}
}
