package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ttstream/internal/application/port"
)

// Repo keeps the symbol cache in one hash and each session under its own key.
type Repo struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	keySymbols string // prefix + ":streamer_symbols"
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	if prefix == "" {
		prefix = "ttstream"
	}
	return &Repo{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		keySymbols: prefix + ":streamer_symbols",
	}
}

func (r *Repo) sessionKey(login string) string {
	return r.prefix + ":session:" + login
}

func (r *Repo) LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	vals, err := r.rdb.HMGet(ctx, r.keySymbols, symbols...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out[symbols[i]] = s
		}
	}
	return out, nil
}

func (r *Repo) SaveStreamerSymbols(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(entries))
	for k, v := range entries {
		values = append(values, k, v)
	}
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keySymbols, values...)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keySymbols, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) LoadSession(ctx context.Context, login string) (*port.Session, error) {
	b, err := r.rdb.Get(ctx, r.sessionKey(login)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s port.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession stores the session until it expires, or for the repo TTL when
// the API gave no expiration.
func (r *Repo) SaveSession(ctx context.Context, s *port.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := r.ttl
	if !s.ExpiresAt.IsZero() {
		ttl = time.Until(s.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return r.rdb.Set(ctx, r.sessionKey(s.Login), b, ttl).Err()
}

func (r *Repo) DeleteSession(ctx context.Context, login string) error {
	return r.rdb.Del(ctx, r.sessionKey(login)).Err()
}

// Close is a no-op; the client is owned by the service context.
func (r *Repo) Close() error { return nil }

var (
	_ port.SymbolCache  = (*Repo)(nil)
	_ port.SessionStore = (*Repo)(nil)
)
