package dxlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
	"ttstream/internal/domain/model"
	"ttstream/internal/infrastructure/metrics"
)

const defaultAuthTimeout = 10 * time.Second

// ErrAlreadyOpen is returned by a second Open call.
var ErrAlreadyOpen = errors.New("subscription already open")

// State is the handshake state of a Subscription.
type State int

const (
	StateDisconnected State = iota
	StateAwaitingSetupAck
	StateAwaitingAuth
	StateAuthorized
	StateChannelRequested
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateAwaitingSetupAck:
		return "AwaitingSetupAck"
	case StateAwaitingAuth:
		return "AwaitingAuth"
	case StateAuthorized:
		return "Authorized"
	case StateChannelRequested:
		return "ChannelRequested"
	case StateSubscribed:
		return "Subscribed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Option configures a Subscription.
type Option func(*Subscription)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Subscription) { s.dial = d }
}

// WithAuthTimeout bounds how long Open waits for AUTHORIZED.
func WithAuthTimeout(d time.Duration) Option {
	return func(s *Subscription) {
		if d > 0 {
			s.authTimeout = d
		}
	}
}

// Subscription is one streaming session on a DXLink endpoint. It owns the
// connection and the receive and heartbeat goroutines. It cannot be reopened
// after Close.
type Subscription struct {
	id          string
	url         string
	token       string
	translator  port.SymbolTranslator
	handlers    Handlers
	dial        Dialer
	authTimeout time.Duration
	tick        time.Duration // keepalive unit, one second outside tests
	log         zerolog.Logger

	writeMu sync.Mutex // one writer at a time on the connection

	mu         sync.Mutex
	conn       Conn
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  *heartbeat
	state      State
	opening    bool
	closed     bool
	err        error
	authorized chan struct{}
	authOnce   sync.Once
	done       chan struct{}
	doneOnce   sync.Once
}

// NewSubscription validates handlers and builds an unopened subscription.
// No network I/O happens here.
func NewSubscription(url, token string, translator port.SymbolTranslator, handlers Handlers, opts ...Option) (*Subscription, error) {
	if err := handlers.Validate(); err != nil {
		return nil, err
	}
	if translator == nil {
		return nil, errors.New("symbol translator is nil")
	}
	id := uuid.NewString()
	s := &Subscription{
		id:          id,
		url:         url,
		token:       token,
		translator:  translator,
		handlers:    handlers,
		dial:        DialWebsocket,
		authTimeout: defaultAuthTimeout,
		tick:        time.Second,
		log:         log.With().Str("sub", id).Logger(),
		authorized:  make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string { return s.id }

// State returns the current handshake state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the receive loop has stopped, or on Close if the
// subscription was never opened.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the error that stopped the receive loop; nil after a normal
// close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Open connects, starts the receive loop and runs the handshake
// SETUP -> AUTH -> (AUTHORIZED) -> CHANNEL_REQUEST -> FEED_SUBSCRIPTION.
// On failure the subscription is closed before Open returns.
func (s *Subscription) Open(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrClosed
	case s.opening || s.conn != nil:
		s.mu.Unlock()
		return nil, ErrAlreadyOpen
	}
	s.opening = true
	s.mu.Unlock()

	s.log.Info().Str("url", s.url).Msg("streamer connecting")
	conn, err := s.dial(ctx, s.url)
	if err != nil {
		s.mu.Lock()
		s.opening = false
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, s.url, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		return nil, ErrClosed
	}
	s.conn = conn
	s.ctx = loopCtx
	s.cancel = cancel
	s.state = StateAwaitingSetupAck
	s.mu.Unlock()

	go s.receiveLoop(loopCtx, conn)

	if err := s.handshake(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.Info().
		Int("symbols", len(s.translator.StreamerSymbols())).
		Int("event_types", len(s.handlers.EventTypes())).
		Msg("streamer subscribed")
	return s, nil
}

func (s *Subscription) handshake(ctx context.Context) error {
	if err := s.send(msgSetup, newSetupMsg()); err != nil {
		return err
	}
	if err := s.send(msgAuth, newAuthMsg(s.token)); err != nil {
		return err
	}
	if err := s.awaitAuthorization(ctx); err != nil {
		return err
	}
	if err := s.send(msgChannelRequest, newChannelRequestMsg()); err != nil {
		return err
	}
	s.compareAndSetState(StateAuthorized, StateChannelRequested)
	if err := s.subscribeFeed(); err != nil {
		return err
	}
	s.compareAndSetState(StateChannelRequested, StateSubscribed)
	return nil
}

func (s *Subscription) awaitAuthorization(ctx context.Context) error {
	timer := time.NewTimer(s.authTimeout)
	defer timer.Stop()

	select {
	case <-s.authorized:
		return nil
	case <-s.done:
		if err := s.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: connection closed before authorization", ErrConnection)
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrAuthTimeout, s.authTimeout)
	}
}

func (s *Subscription) subscribeFeed() error {
	if s.State() < StateAuthorized {
		return ErrNotAuthorized
	}
	msg := feedSubscriptionMsg{
		Type:    msgFeedSubscription,
		Channel: feedChannel,
		Add:     feedSubscriptionItems(s.translator.StreamerSymbols(), s.handlers.EventTypes()),
	}
	return s.send(msgFeedSubscription, msg)
}

// feedSubscriptionItems is the cartesian product symbols x types.
func feedSubscriptionItems(symbols []string, types []model.EventType) []feedSubscriptionItem {
	items := make([]feedSubscriptionItem, 0, len(symbols)*len(types))
	for _, sym := range symbols {
		for _, t := range types {
			items = append(items, feedSubscriptionItem{Symbol: sym, Type: string(t)})
		}
	}
	return items
}

// Close stops both loops and then closes the connection. It is safe to call
// more than once and before Open, and always returns nil; a failure closing
// an already broken socket is only logged. Close does not wait for a handler
// that is still running; use Done for that.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	cancel := s.cancel
	hb := s.heartbeat
	s.mu.Unlock()

	if hb != nil {
		hb.cancel()
	}
	if cancel != nil {
		cancel()
	}
	if conn == nil {
		s.closeDone()
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if err := conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("connection close failed")
	}
	s.log.Info().Msg("streamer closed")
	return nil
}

func (s *Subscription) send(msgType string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}

	s.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, b)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrConnection, msgType, err)
	}
	metrics.FramesSent.WithLabelValues(msgType).Inc()
	s.log.Debug().Str("type", msgType).Msg("frame sent")
	return nil
}

func (s *Subscription) compareAndSetState(from, to State) {
	s.mu.Lock()
	if s.state == from {
		s.state = to
	}
	s.mu.Unlock()
}

func (s *Subscription) markAuthorized() {
	s.mu.Lock()
	if s.state < StateAuthorized {
		s.state = StateAuthorized
	}
	s.mu.Unlock()
	s.authOnce.Do(func() { close(s.authorized) })
	s.log.Info().Msg("streamer authorized")
}

func (s *Subscription) markUnauthorized(state string) {
	s.mu.Lock()
	if s.state >= StateAuthorized {
		s.state = StateAwaitingAuth
	}
	s.mu.Unlock()
	s.log.Debug().Str("state", state).Msg("auth state")
}

func (s *Subscription) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}
