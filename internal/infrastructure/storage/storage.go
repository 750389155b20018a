package storage

import (
	"context"
	"sync"

	"ttstream/internal/application/port"
)

// MemoryCache is a process-local SymbolCache, used when no backend is enabled.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ port.SymbolCache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) LookupStreamerSymbols(ctx context.Context, symbols []string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(symbols))
	for _, s := range symbols {
		if v, ok := c.entries[s]; ok {
			out[s] = v
		}
	}
	return out, nil
}

func (c *MemoryCache) SaveStreamerSymbols(ctx context.Context, entries map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		c.entries[k] = v
	}
	return nil
}

func (c *MemoryCache) Close() error { return nil }
