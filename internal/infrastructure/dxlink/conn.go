package dxlink

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const dialTimeout = 10 * time.Second

// Conn is the subset of *websocket.Conn the streamer uses. Reads come from
// one goroutine; writes must be serialized by the caller.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens a transport connection to url.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DialWebsocket dials url with gorilla's websocket client.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: dialTimeout,
	}
	cctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := d.DialContext(cctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
