package symbols

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
	"ttstream/internal/domain/model"
)

// Factory builds Translations from the instruments API, reading and
// filling the symbol cache when one is configured.
type Factory struct {
	lookup port.InstrumentLookup
	cache  port.SymbolCache
}

var _ port.TranslatorFactory = (*Factory)(nil)

// NewFactory creates a Factory; cache may be nil.
func NewFactory(lookup port.InstrumentLookup, cache port.SymbolCache) *Factory {
	return &Factory{lookup: lookup, cache: cache}
}

// Create resolves every caller symbol to its streamer symbol. Symbols the API
// does not return fall back to themselves.
func (f *Factory) Create(ctx context.Context, symbols []string) (port.SymbolTranslator, error) {
	callers := normalize(symbols)
	mapping := make(map[string]string, len(callers))

	if f.cache != nil && len(callers) > 0 {
		cached, err := f.cache.LookupStreamerSymbols(ctx, callers)
		if err != nil {
			log.Warn().Err(err).Msg("symbol cache lookup failed")
		}
		for k, v := range cached {
			mapping[k] = v
		}
	}

	byType := map[model.InstrumentType][]string{}
	for _, s := range callers {
		if _, ok := mapping[s]; ok {
			continue
		}
		kind := Classify(s)
		byType[kind] = append(byType[kind], s)
	}

	fetched := map[string]string{}
	for _, kind := range model.InstrumentTypes {
		pending := byType[kind]
		if len(pending) == 0 {
			continue
		}
		got, err := f.lookup.StreamerSymbols(ctx, kind, pending)
		if err != nil {
			return nil, err
		}
		for _, s := range pending {
			ss, ok := got[s]
			if !ok {
				log.Warn().Str("symbol", s).Str("instrument", string(kind)).Msg("no streamer symbol, using symbol as-is")
				continue
			}
			fetched[s] = ss
			mapping[s] = ss
		}
	}

	if f.cache != nil && len(fetched) > 0 {
		if err := f.cache.SaveStreamerSymbols(ctx, fetched); err != nil {
			log.Warn().Err(err).Int("entries", len(fetched)).Msg("symbol cache write failed")
		}
	}

	log.Debug().Int("symbols", len(callers)).Int("cached", len(mapping)-len(fetched)).Int("fetched", len(fetched)).Msg("symbol translations built")
	return NewTranslations(callers, mapping), nil
}

// normalize trims symbols and drops blanks and duplicates, keeping order.
func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
