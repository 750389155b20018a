package dxlink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ttstream/internal/domain/model"
)

// fakeStreamer is a minimal DXLink server: it acknowledges SETUP, authorizes
// a matching token and pushes one quote per subscribed symbol.
func fakeStreamer(t *testing.T, token string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		for {
			var msg map[string]any
			if err := c.ReadJSON(&msg); err != nil {
				return
			}
			switch msg["type"] {
			case "SETUP":
				_ = c.WriteJSON(map[string]any{"type": "SETUP", "channel": 0, "keepaliveTimeout": 60, "acceptKeepaliveTimeout": 60, "version": "1.0"})
				_ = c.WriteJSON(map[string]any{"type": "AUTH_STATE", "channel": 0, "state": "UNAUTHORIZED"})
			case "AUTH":
				if msg["token"] != token {
					_ = c.WriteJSON(map[string]any{"type": "ERROR", "channel": 0, "error": "UNAUTHORIZED", "message": "invalid token"})
					continue
				}
				_ = c.WriteJSON(map[string]any{"type": "AUTH_STATE", "channel": 0, "state": "AUTHORIZED", "userId": "u1"})
			case "CHANNEL_REQUEST":
				_ = c.WriteJSON(map[string]any{"type": "CHANNEL_OPENED", "channel": 1, "service": "FEED", "parameters": map[string]any{"contract": "AUTO"}})
			case "FEED_SUBSCRIPTION":
				add, _ := msg["add"].([]any)
				data := make([]any, 0, len(add))
				for _, it := range add {
					item, _ := it.(map[string]any)
					data = append(data, map[string]any{"eventType": item["type"], "eventSymbol": item["symbol"], "bidPrice": 1.5, "askPrice": 1.75})
				}
				_ = c.WriteJSON(map[string]any{"type": "FEED_DATA", "channel": 1, "data": data})
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscriptionAgainstWebsocketServer(t *testing.T) {
	srv := fakeStreamer(t, "quote-token")
	defer srv.Close()

	quotes := make(chan model.Quote, 4)
	sub, err := NewSubscription(wsURL(srv), "quote-token", newMapTranslator("AAPL", "AAPL", "SPX", "$SPX.X"),
		Handlers{OnQuote: func(q model.Quote) { quotes <- q }}, WithAuthTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewSubscription failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := sub.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case q := <-quotes:
			got[q.Symbol] = true
			if q.AskPrice == nil || *q.AskPrice != 1.75 {
				t.Errorf("unexpected ask price %v", q.AskPrice)
			}
		case <-ctx.Done():
			t.Fatalf("quotes not received, got %v", got)
		}
	}
	if !got["AAPL"] || !got["SPX"] {
		t.Errorf("expected caller symbols, got %v", got)
	}

	if err := sub.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	select {
	case <-sub.Done():
	case <-ctx.Done():
		t.Fatal("receive loop did not stop after Close")
	}
	if err := sub.Err(); err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
}

func TestSubscriptionRejectedToken(t *testing.T) {
	srv := fakeStreamer(t, "quote-token")
	defer srv.Close()

	sub, _ := NewSubscription(wsURL(srv), "wrong", newMapTranslator("AAPL", "AAPL"),
		Handlers{OnQuote: func(model.Quote) {}}, WithAuthTimeout(2*time.Second))

	_, err := sub.Open(context.Background())
	var se *StreamerError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StreamerError, got %v", err)
	}
	if se.Code != "UNAUTHORIZED" {
		t.Errorf("unexpected code %q", se.Code)
	}
}
