package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
	"ttstream/internal/infrastructure/dxlink"
)

type ServiceDeps struct {
	Tokens      port.QuoteTokenProvider
	Translators port.TranslatorFactory
	AuthTimeout time.Duration
	Dialer      dxlink.Dialer // nil: gorilla websocket
}

type Service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) *Service {
	return &Service{deps: deps}
}

// Subscribe builds an unopened subscription for symbols. Handlers are
// checked before any network call.
func (s *Service) Subscribe(ctx context.Context, symbols []string, handlers dxlink.Handlers) (*dxlink.Subscription, error) {
	if err := handlers.Validate(); err != nil {
		return nil, err
	}

	token, err := s.deps.Tokens.QuoteToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote token: %w", err)
	}
	translator, err := s.deps.Translators.Create(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("symbol translations: %w", err)
	}

	opts := []dxlink.Option{dxlink.WithAuthTimeout(s.deps.AuthTimeout)}
	if s.deps.Dialer != nil {
		opts = append(opts, dxlink.WithDialer(s.deps.Dialer))
	}
	sub, err := dxlink.NewSubscription(token.URL, token.Token, translator, handlers, opts...)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("sub", sub.ID()).
		Str("level", token.Level).
		Int("symbols", len(translator.StreamerSymbols())).
		Msg("subscription created")
	return sub, nil
}

// Run subscribes, opens and blocks until ctx is done or the stream stops.
// A stream stopped by ctx returns nil.
func (s *Service) Run(ctx context.Context, symbols []string, handlers dxlink.Handlers) error {
	sub, err := s.Subscribe(ctx, symbols, handlers)
	if err != nil {
		return err
	}
	if _, err := sub.Open(ctx); err != nil {
		return err
	}
	defer sub.Close()

	select {
	case <-ctx.Done():
		return nil
	case <-sub.Done():
		return sub.Err()
	}
}
