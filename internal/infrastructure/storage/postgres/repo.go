package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ttstream/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)
	return err
}

func (r *Repo) LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	args := make([]any, len(symbols))
	marks := make([]string, len(symbols))
	for i, s := range symbols {
		args[i] = s
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, streamer_symbol FROM streamer_symbols WHERE symbol IN (`+strings.Join(marks, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sym, streamer string
		if err := rows.Scan(&sym, &streamer); err != nil {
			return nil, err
		}
		out[sym] = streamer
	}
	return out, rows.Err()
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

	for sym, streamer := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO streamer_symbols(symbol, streamer_symbol, updated_at)
			VALUES($1, $2, now())
			ON CONFLICT (symbol) DO UPDATE SET
			streamer_symbol=EXCLUDED.streamer_symbol, updated_at=EXCLUDED.updated_at
		`, sym, streamer)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ port.SymbolCache = (*Repo)(nil)
