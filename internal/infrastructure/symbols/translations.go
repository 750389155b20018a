package symbols

import (
	"fmt"

	"ttstream/internal/application/port"
)

// Translations is a read-only caller <-> streamer symbol table.
type Translations struct {
	streamer []string
	original map[string]string
}

var _ port.SymbolTranslator = (*Translations)(nil)

// NewTranslations builds the table in caller order. Callers missing from
// mapping stream under their own name. When two callers share a streamer
// symbol the first one wins the reverse mapping.
func NewTranslations(callers []string, mapping map[string]string) *Translations {
	t := &Translations{original: make(map[string]string, len(callers))}
	for _, c := range callers {
		s, ok := mapping[c]
		if !ok || s == "" {
			s = c
		}
		if _, dup := t.original[s]; dup {
			continue
		}
		t.original[s] = c
		t.streamer = append(t.streamer, s)
	}
	return t
}

// StreamerSymbols returns the streamer symbols in caller order, without duplicates.
func (t *Translations) StreamerSymbols() []string {
	out := make([]string, len(t.streamer))
	copy(out, t.streamer)
	return out
}

// OriginalSymbol maps a streamer symbol back to the caller's symbol.
func (t *Translations) OriginalSymbol(streamerSymbol string) (string, error) {
	if c, ok := t.original[streamerSymbol]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", port.ErrUnknownSymbol, streamerSymbol)
}
