package port

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by a SessionStore on a cache miss.
var ErrSessionNotFound = errors.New("session not found")

// QuoteToken is what the streamer needs to connect: the DXLink url and token.
type QuoteToken struct {
	URL   string
	Token string
	Level string
}

// QuoteTokenProvider issues streaming credentials.
type QuoteTokenProvider interface {
	QuoteToken(ctx context.Context) (QuoteToken, error)
}

// Session is a logged-in REST session.
type Session struct {
	Login         string    `json:"login"`
	SessionToken  string    `json:"session_token"`
	RememberToken string    `json:"remember_token,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// SessionStore caches sessions between runs.
type SessionStore interface {
	LoadSession(ctx context.Context, login string) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, login string) error
}
