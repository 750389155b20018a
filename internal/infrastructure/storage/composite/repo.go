package composite

import (
	"context"

	"ttstream/internal/application/port"
)

// Repo fans symbol cache writes out to every backend and answers lookups
// from the first backend that has an entry.
type Repo struct {
	repos []port.SymbolCache
}

func New(repos ...port.SymbolCache) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.SymbolCache, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

// Len reports how many backends are configured.
func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	pending := symbols
	var firstErr error
	for _, repo := range r.repos {
		if len(pending) == 0 {
			break
		}
		got, err := repo.LookupStreamerSymbols(ctx, pending)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		next := pending[:0:0]
		for _, s := range pending {
			if v, ok := got[s]; ok {
				out[s] = v
			} else {
				next = append(next, s)
			}
		}
		pending = next
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (r *Repo) SaveStreamerSymbols(ctx context.Context, entries map[string]string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.SaveStreamerSymbols(ctx, entries); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.SymbolCache = (*Repo)(nil)
