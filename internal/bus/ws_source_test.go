package bus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

func startFeedServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestPriceFeedPublishesSignals(t *testing.T) {
	srv := startFeedServer(t, []string{
		`{"address":"mintA","price":1.5,"timestampMs":1700000000000}`,
		`not json`,
		`{"address":"","price":2}`,
		`{"address":"mintB","price":0}`,
		`{"address":"mintC","price":3.25}`,
	})
	defer srv.Close()

	b := New(zap.NewNop())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed, err := NewPriceFeed(context.Background(), endpoint, b, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer feed.Close()

	first := waitPrice(t, b)
	if first.TokenAddress != "mintA" || first.Price != 1.5 || first.TimestampMs != 1700000000000 {
		t.Fatalf("unexpected first signal: %+v", first)
	}

	second := waitPrice(t, b)
	if second.TokenAddress != "mintC" || second.Price != 3.25 {
		t.Fatalf("malformed or empty messages must be skipped, got %+v", second)
	}
	if second.TimestampMs == 0 {
		t.Fatal("missing timestamp should be filled in")
	}
}

func waitPrice(t *testing.T, b *SignalBus) domain.PriceSignal {
	t.Helper()
	select {
	case p := <-b.Price():
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for price signal")
	}
	return domain.PriceSignal{}
}

func TestPriceFeedCloseIsIdempotent(t *testing.T) {
	srv := startFeedServer(t, nil)
	defer srv.Close()

	b := New(zap.NewNop())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed, err := NewPriceFeed(context.Background(), endpoint, b, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
