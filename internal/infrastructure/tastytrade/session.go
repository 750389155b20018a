package tastytrade

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
)

// Credentials for Login. Exactly one of Password and RememberToken must be set.
type Credentials struct {
	Login         string
	Password      string
	RememberToken string
	RememberMe    bool
}

type loginRequest struct {
	Login         string `json:"login"`
	Password      string `json:"password,omitempty"`
	RememberToken string `json:"remember-token,omitempty"`
	RememberMe    bool   `json:"remember-me"`
}

type loginResponse struct {
	User struct {
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"user"`
	SessionToken      string `json:"session-token"`
	RememberToken     string `json:"remember-token"`
	SessionExpiration string `json:"session-expiration"`
}

// Login opens a REST session. A still-valid session from the session store is
// reused without calling POST /sessions.
func (c *Client) Login(ctx context.Context, creds Credentials) (*port.Session, error) {
	if creds.Password == "" && creds.RememberToken == "" {
		return nil, ErrMissingCredentials
	}
	if creds.Password != "" && creds.RememberToken != "" {
		return nil, ErrConflictingCredentials
	}

	if s := c.cachedSession(ctx, creds.Login); s != nil {
		return s, nil
	}

	req := loginRequest{Login: creds.Login, RememberMe: creds.RememberMe}
	if creds.Password != "" {
		req.Password = creds.Password
	} else {
		req.RememberToken = creds.RememberToken
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, req, &resp, false); err != nil {
		return nil, err
	}

	s := &port.Session{
		Login:         creds.Login,
		SessionToken:  resp.SessionToken,
		RememberToken: resp.RememberToken,
	}
	if exp, err := time.Parse(time.RFC3339, resp.SessionExpiration); err == nil {
		s.ExpiresAt = exp
	}
	c.setSession(s)

	if c.store != nil {
		if err := c.store.SaveSession(ctx, s); err != nil {
			log.Warn().Err(err).Str("login", creds.Login).Msg("session cache write failed")
		}
	}
	log.Info().Str("login", creds.Login).Str("user", resp.User.Username).Msg("logged in")
	return c.Session(), nil
}

// cachedSession returns a stored session that is unexpired and still accepted
// by GET /customers/me.
func (c *Client) cachedSession(ctx context.Context, login string) *port.Session {
	if c.store == nil {
		return nil
	}
	s, err := c.store.LoadSession(ctx, login)
	if err != nil {
		if !errors.Is(err, port.ErrSessionNotFound) {
			log.Warn().Err(err).Str("login", login).Msg("session cache read failed")
		}
		return nil
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return nil
	}

	c.setSession(s)
	if err := c.do(ctx, http.MethodGet, "/customers/me", nil, nil, nil, true); err != nil {
		log.Debug().Err(err).Str("login", login).Msg("cached session rejected")
		c.setSession(nil)
		return nil
	}
	log.Info().Str("login", login).Msg("reusing cached session")
	return c.Session()
}

// Logout ends the session with DELETE /sessions and drops it from the store.
func (c *Client) Logout(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return ErrNotLoggedIn
	}
	if err := c.do(ctx, http.MethodDelete, "/sessions", nil, nil, nil, true); err != nil {
		return err
	}
	c.setSession(nil)
	if c.store != nil {
		if err := c.store.DeleteSession(ctx, s.Login); err != nil {
			log.Warn().Err(err).Str("login", s.Login).Msg("session cache delete failed")
		}
	}
	log.Info().Str("login", s.Login).Msg("logged out")
	return nil
}
