package tastytrade

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ttstream/internal/application/port"
)

const (
	ProductionHost = "api.tastyworks.com"
	SandboxHost    = "api.cert.tastyworks.com"

	userAgent = "tastytrade-api-client/1.0"
)

// ErrMissingCredentials is returned by Login without a password or remember token.
var ErrMissingCredentials = errors.New("a password or remember token is required to log in")

// ErrConflictingCredentials is returned by Login when both a password and a remember token are set.
var ErrConflictingCredentials = errors.New("provide either a password or a remember token, not both")

// ErrNotLoggedIn is returned by authenticated calls before Login.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tastytrade http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("tastytrade http %d: %s: %s", e.Status, e.Code, e.Message)
}

// BaseURL returns the REST base url for the chosen environment.
func BaseURL(sandbox bool) string {
	if sandbox {
		return "https://" + SandboxHost
	}
	return "https://" + ProductionHost
}

// Client is a tastytrade REST client. After Login every request carries the
// session token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      port.SessionStore

	mu      sync.RWMutex
	session *port.Session
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore caches sessions so a later Login can reuse them.
func WithSessionStore(s port.SessionStore) Option {
	return func(c *Client) { c.store = s }
}

// NewClient creates a REST client; an empty baseURL means production.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURL(false)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session, or nil before Login.
func (c *Client) Session() *port.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.SessionToken
}

func (c *Client) setSession(s *port.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}
