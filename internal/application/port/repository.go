package port

import "context"

// SymbolCache persists symbol -> streamer symbol lookups so repeat runs
// skip the instruments API.
type SymbolCache interface {
	// LookupStreamerSymbols returns the cached entries for the given symbols;
	// missing symbols are simply absent from the result
	LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error)

	// SaveStreamerSymbols upserts symbol -> streamer symbol entries
	SaveStreamerSymbols(ctx context.Context, entries map[string]string) error

	// Connection management
	Close() error
}
