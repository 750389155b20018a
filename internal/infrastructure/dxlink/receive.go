package dxlink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"ttstream/internal/infrastructure/metrics"
)

// receiveLoop reads frames until the connection ends, Close is called or the
// server reports an ERROR. It never reconnects.
func (s *Subscription) receiveLoop(ctx context.Context, conn Conn) {
	metrics.OpenSubscriptions.Inc()
	defer metrics.OpenSubscriptions.Dec()

	err := s.receive(ctx, conn)

	s.mu.Lock()
	s.err = err
	cancel := s.cancel
	s.state = StateDisconnected
	s.mu.Unlock()

	// stops the heartbeat with the loop
	if cancel != nil {
		cancel()
	}

	if err != nil {
		s.log.Error().Err(err).Msg("receive loop stopped")
		if s.handlers.OnError != nil {
			s.handlers.OnError(err)
		}
	} else {
		s.log.Info().Msg("receive loop finished")
	}
	s.closeDone()
}

func (s *Subscription) receive(ctx context.Context, conn Conn) error {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: read: %w", ErrConnection, err)
		}
		if err := s.handleFrame(b); err != nil {
			return err
		}
	}
}

// handleFrame classifies one frame. Only ERROR frames are fatal.
func (s *Subscription) handleFrame(b []byte) error {
	var msg inboundMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		s.log.Warn().Err(err).Int("bytes", len(b)).Msg("unparseable frame")
		return nil
	}
	metrics.FramesReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case msgError:
		return &StreamerError{Code: msg.Error, Message: msg.Message}

	case msgSetup:
		s.compareAndSetState(StateAwaitingSetupAck, StateAwaitingAuth)
		s.startHeartbeat(keepaliveInterval(msg.KeepaliveTimeout))

	case msgAuthState:
		if msg.State == stateAuthorized {
			s.markAuthorized()
		} else {
			s.markUnauthorized(msg.State)
		}

	case msgFeedData:
		s.handleFeedData(msg.Data)

	case msgChannelOpened, msgChannelClosed, msgFeedConfig, msgKeepalive:
		s.log.Debug().Str("type", msg.Type).Int("channel", msg.Channel).Msg("frame ignored")

	default:
		s.log.Debug().Str("type", msg.Type).Msg("unhandled message type")
	}
	return nil
}

// handleFeedData dispatches FEED_DATA elements in order. A bad element is
// dropped on its own; the rest of the frame is still delivered.
func (s *Subscription) handleFeedData(data json.RawMessage) {
	elems, err := splitFeedData(data)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		s.log.Warn().Err(err).Msg("malformed FEED_DATA payload")
		return
	}
	for i, raw := range elems {
		ev, err := decodeFeedEvent(raw)
		if err != nil {
			metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
			s.log.Warn().Err(err).Int("index", i).Msg("malformed feed event dropped")
			continue
		}
		if err := s.handleFeedEvent(ev); err != nil {
			s.log.Warn().Err(err).Msg("feed event dropped")
		}
	}
}
