package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ttstream/internal/application/port"
)

// sqlite's default host parameter limit is 999
const maxParams = 500

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS streamer_symbols (
  symbol TEXT PRIMARY KEY,
  streamer_symbol TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	return err
}

func (r *Repo) LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	for start := 0; start < len(symbols); start += maxParams {
		end := min(start+maxParams, len(symbols))
		batch := symbols[start:end]

		args := make([]any, len(batch))
		for i, s := range batch {
			args[i] = s
		}
		q := `SELECT symbol, streamer_symbol FROM streamer_symbols WHERE symbol IN (` +
			strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",") + `)`
		rows, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var sym, streamer string
			if err := rows.Scan(&sym, &streamer); err != nil {
				rows.Close()
				return nil, err
			}
			out[sym] = streamer
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) SaveStreamerSymbols(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO streamer_symbols(symbol, streamer_symbol, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
		streamer_symbol=excluded.streamer_symbol, updated_at=excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for sym, streamer := range entries {
		if _, err := stmt.ExecContext(ctx, sym, streamer, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ port.SymbolCache = (*Repo)(nil)
