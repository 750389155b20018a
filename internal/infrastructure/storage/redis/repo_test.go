package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"ttstream/internal/application/port"
)

// Runs against a live server when TTSTREAM_TEST_REDIS_ADDR is set.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	addr := os.Getenv("TTSTREAM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TTSTREAM_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	prefix := "ttstream_test_" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		ctx := context.Background()
		_ = rdb.Del(ctx, prefix+":streamer_symbols", prefix+":session:me").Err()
	})
	return New(rdb, prefix, time.Minute)
}

func TestRedisRepoSymbols(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveStreamerSymbols(ctx, map[string]string{"SPX": "$SPX.X", "AAPL": "AAPL"}); err != nil {
		t.Fatalf("SaveStreamerSymbols failed: %v", err)
	}
	got, err := repo.LookupStreamerSymbols(ctx, []string{"SPX", "MSFT"})
	if err != nil {
		t.Fatalf("LookupStreamerSymbols failed: %v", err)
	}
	if len(got) != 1 || got["SPX"] != "$SPX.X" {
		t.Errorf("unexpected entries %v", got)
	}
}

func TestRedisRepoSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LoadSession(ctx, "me"); !errors.Is(err, port.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	in := &port.Session{Login: "me", SessionToken: "tok", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	if err := repo.SaveSession(ctx, in); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	out, err := repo.LoadSession(ctx, "me")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if out.SessionToken != "tok" || !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Errorf("unexpected session %+v", out)
	}
	if err := repo.DeleteSession(ctx, "me"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := repo.LoadSession(ctx, "me"); !errors.Is(err, port.ErrSessionNotFound) {
		t.Errorf("expected session deleted, got %v", err)
	}
}
