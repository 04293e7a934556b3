package bus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

// WSConfig configures the price feed connection.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns the default price feed configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// priceMessage is the wire shape of one feed update.
type priceMessage struct {
	Address     string  `json:"address"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestampMs"`
}

// PriceFeed streams externally-sourced price observations from a WebSocket
// endpoint onto the signal bus, reconnecting with exponential backoff.
type PriceFeed struct {
	endpoint string
	config   WSConfig
	bus      *SignalBus
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewPriceFeed connects to the endpoint and starts streaming.
func NewPriceFeed(ctx context.Context, endpoint string, bus *SignalBus, logger *zap.Logger, config *WSConfig) (*PriceFeed, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	f := &PriceFeed{
		endpoint: endpoint,
		config:   cfg,
		bus:      bus,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(2)
	go f.readLoop()
	go f.pingLoop()
	return f, nil
}

func (f *PriceFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return err
	}
	f.conn = conn
	return nil
}

// Close shuts the feed down and waits for its goroutines.
func (f *PriceFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		_ = f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *PriceFeed) readLoop() {
	defer f.wg.Done()

	delay := f.config.ReconnectDelay
	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.reconnect(delay) {
				return
			}
			delay *= 2
			if delay > f.config.MaxReconnectDelay {
				delay = f.config.MaxReconnectDelay
			}
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.logger.Warn("price feed read failed", zap.Error(err))
			f.connMu.Lock()
			_ = conn.Close()
			f.conn = nil
			f.connMu.Unlock()
			continue
		}

		delay = f.config.ReconnectDelay
		f.handleMessage(message)
	}
}

// reconnect waits out the backoff delay and dials again. Returns false when
// the feed is shutting down.
func (f *PriceFeed) reconnect(delay time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := f.connect(ctx); err != nil {
		f.logger.Warn("price feed reconnect failed", zap.Error(err))
	}
	return true
}

func (f *PriceFeed) handleMessage(message []byte) {
	var msg priceMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		f.logger.Warn("malformed price message", zap.Error(err))
		return
	}
	if msg.Address == "" || msg.Price <= 0 {
		return
	}
	if msg.TimestampMs == 0 {
		msg.TimestampMs = time.Now().UnixMilli()
	}

	f.bus.PublishPrice(domain.PriceSignal{
		TokenAddress: msg.Address,
		Price:        msg.Price,
		TimestampMs:  msg.TimestampMs,
	})
}

func (f *PriceFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				_ = f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.logger.Warn("price feed ping failed", zap.Error(err))
				}
			}
			f.connMu.Unlock()
		}
	}
}
