package dxlink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ttstream/internal/application/port"
)

// scriptedConn is an in-memory Conn. Frames pushed with push are returned by
// ReadMessage; onSend sees every outbound frame.
type scriptedConn struct {
	mu     sync.Mutex
	sent   []map[string]any
	onSend func(c *scriptedConn, frame map[string]any)

	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newScriptedConn() *scriptedConn {
	return &scriptedConn{
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	select {
	case b, ok := <-c.inbound:
		if !ok {
			return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
		}
		return websocket.TextMessage, b, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *scriptedConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("use of closed network connection")
	default:
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, frame)
	hook := c.onSend
	c.mu.Unlock()
	if hook != nil {
		hook(c, frame)
	}
	return nil
}

func (c *scriptedConn) WriteControl(int, []byte, time.Time) error { return nil }

func (c *scriptedConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.closeErr
}

func (c *scriptedConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *scriptedConn) push(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.inbound <- b
}

func (c *scriptedConn) sentTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, f := range c.sent {
		t, _ := f["type"].(string)
		out = append(out, t)
	}
	return out
}

func (c *scriptedConn) countSent(msgType string) int {
	n := 0
	for _, t := range c.sentTypes() {
		if t == msgType {
			n++
		}
	}
	return n
}

func (c *scriptedConn) lastSent(msgType string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i]["type"] == msgType {
			return c.sent[i]
		}
	}
	return nil
}

// authorizingServer answers SETUP with a SETUP and, once both SETUP and AUTH
// have been sent, answers with AUTH_STATE AUTHORIZED.
func authorizingServer(keepaliveTimeout int) func(c *scriptedConn, frame map[string]any) {
	var sawSetup, sawAuth bool
	return func(c *scriptedConn, frame map[string]any) {
		switch frame["type"] {
		case msgSetup:
			sawSetup = true
			c.push(map[string]any{"type": msgSetup, "channel": 0, "keepaliveTimeout": keepaliveTimeout, "version": "1.0"})
			c.push(map[string]any{"type": msgAuthState, "channel": 0, "state": "UNAUTHORIZED"})
		case msgAuth:
			sawAuth = true
		}
		if sawSetup && sawAuth && frame["type"] == msgAuth {
			c.push(map[string]any{"type": msgAuthState, "channel": 0, "state": stateAuthorized})
		}
	}
}

func dialerFor(conn Conn) (Dialer, *int) {
	calls := 0
	return func(ctx context.Context, url string) (Conn, error) {
		calls++
		return conn, nil
	}, &calls
}

type mapTranslator struct {
	streamer []string
	original map[string]string
}

// newMapTranslator takes caller/streamer pairs.
func newMapTranslator(pairs ...string) *mapTranslator {
	t := &mapTranslator{original: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.streamer = append(t.streamer, pairs[i+1])
		t.original[pairs[i+1]] = pairs[i]
	}
	return t
}

func (t *mapTranslator) StreamerSymbols() []string { return t.streamer }

func (t *mapTranslator) OriginalSymbol(s string) (string, error) {
	if o, ok := t.original[s]; ok {
		return o, nil
	}
	return "", port.ErrUnknownSymbol
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
