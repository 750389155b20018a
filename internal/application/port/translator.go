package port

import (
	"context"
	"errors"

	"ttstream/internal/domain/model"
)

// ErrUnknownSymbol is returned when a streamer symbol has no caller symbol.
var ErrUnknownSymbol = errors.New("unknown streamer symbol")

// SymbolTranslator maps caller symbols to streamer symbols and back.
type SymbolTranslator interface {
	// StreamerSymbols returns the streamer symbols to subscribe to
	StreamerSymbols() []string
	// OriginalSymbol returns the caller symbol for a streamer symbol,
	// or an error wrapping ErrUnknownSymbol
	OriginalSymbol(streamerSymbol string) (string, error)
}

// TranslatorFactory builds a translator for a list of caller symbols.
type TranslatorFactory interface {
	Create(ctx context.Context, symbols []string) (SymbolTranslator, error)
}

// InstrumentLookup resolves streamer symbols for one instrument type in bulk.
// Symbols the backend does not know are absent from the result.
type InstrumentLookup interface {
	StreamerSymbols(ctx context.Context, kind model.InstrumentType, symbols []string) (map[string]string, error)
}
