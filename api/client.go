// Package api is the authenticated client of the plant classifier backend.
//
// Every request carries the bearer token of the stored session. A 401 answered
// while a refresh token is available renews the pair once, rewrites the session
// and replays the original request exactly once. Concurrent callers that hit the
// same stale token share a single refresh exchange.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/agrinos/plantclassifier/session"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
	log        zerolog.Logger
	metrics    *Metrics
	refreshes  singleflight.Group

	// storeMu orders the end of a refresh against ClearSession.
	storeMu sync.Mutex
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. A client without a cookie
// jar gets one, so cookies always accompany requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the transport timeout. A client passed to WithHTTPClient
// is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			withTimeout := *c.httpClient
			withTimeout.Timeout = d
			c.httpClient = &withTimeout
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client for the given base URL, persisting its session in store.
func New(baseURL string, store session.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	c := &Client{
		baseURL:    ResolveBaseURL(baseURL),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		withJar := *c.httpClient
		withJar.Jar = jar
		c.httpClient = &withJar
	}
	return c, nil
}

// BaseURL is the resolved endpoint root, always ending in the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store exposes the session store the client reads credentials from.
func (c *Client) Store() session.Store {
	return c.store
}
