package dxlink

import (
	"context"
	"math"
	"time"
)

// keepaliveInterval returns half the server keepalive timeout in whole
// seconds, never less than one. A missing timeout falls back to ours.
func keepaliveInterval(serverTimeout float64) int {
	if serverTimeout <= 0 {
		serverTimeout = keepaliveTimeoutSec
	}
	secs := int(math.Floor(serverTimeout / 2))
	if secs < 1 {
		secs = 1
	}
	return secs
}

type heartbeat struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// startHeartbeat (re)starts the keepalive loop. Called by the receive loop
// on every inbound SETUP.
func (s *Subscription) startHeartbeat(intervalSecs int) {
	interval := time.Duration(intervalSecs) * s.tick

	s.mu.Lock()
	if s.closed || s.ctx == nil {
		s.mu.Unlock()
		return
	}
	if s.heartbeat != nil {
		s.heartbeat.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	hb := &heartbeat{interval: interval, cancel: cancel, done: make(chan struct{})}
	s.heartbeat = hb
	s.mu.Unlock()

	s.log.Debug().Int("interval_sec", intervalSecs).Msg("keepalive started")
	go s.runHeartbeat(ctx, hb)
}

func (s *Subscription) runHeartbeat(ctx context.Context, hb *heartbeat) {
	defer close(hb.done)

	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.send(msgKeepalive, newKeepaliveMsg()); err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Msg("keepalive send failed, stopping heartbeat")
				}
				return
			}
		}
	}
}
