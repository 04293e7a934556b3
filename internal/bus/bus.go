// Package bus decouples signal producers from the trade orchestrator with
// buffered channels. Producers fire and never block; a full buffer drops the
// signal and counts it.
package bus

import (
	"sync/atomic"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/observability"
)

// DefaultBuffer is the per-channel signal buffer.
const DefaultBuffer = 256

// SignalBus carries buy, sell and price signals between components.
type SignalBus struct {
	buy   chan domain.BuySignal
	sell  chan domain.SellSignal
	price chan domain.PriceSignal

	dropped atomic.Uint64
	logger  *zap.Logger
}

func New(logger *zap.Logger) *SignalBus {
	return NewWithBuffer(DefaultBuffer, logger)
}

func NewWithBuffer(buffer int, logger *zap.Logger) *SignalBus {
	return &SignalBus{
		buy:    make(chan domain.BuySignal, buffer),
		sell:   make(chan domain.SellSignal, buffer),
		price:  make(chan domain.PriceSignal, buffer),
		logger: logger,
	}
}

// PublishBuy enqueues a buy signal. Returns false when the buffer is full;
// the signal is dropped, not blocked on.
func (b *SignalBus) PublishBuy(sig domain.BuySignal) bool {
	select {
	case b.buy <- sig:
		return true
	default:
		b.drop("buy", sig.TokenAddress)
		return false
	}
}

// PublishSell enqueues a sell signal.
func (b *SignalBus) PublishSell(sig domain.SellSignal) bool {
	select {
	case b.sell <- sig:
		return true
	default:
		b.drop("sell", sig.TokenAddress)
		return false
	}
}

// PublishPrice enqueues a price observation.
func (b *SignalBus) PublishPrice(sig domain.PriceSignal) bool {
	select {
	case b.price <- sig:
		return true
	default:
		b.drop("price", sig.TokenAddress)
		return false
	}
}

// Buy returns the consumer side of the buy channel.
func (b *SignalBus) Buy() <-chan domain.BuySignal { return b.buy }

// Sell returns the consumer side of the sell channel.
func (b *SignalBus) Sell() <-chan domain.SellSignal { return b.sell }

// Price returns the consumer side of the price channel.
func (b *SignalBus) Price() <-chan domain.PriceSignal { return b.price }

// Dropped returns the total number of signals dropped on full buffers.
func (b *SignalBus) Dropped() uint64 { return b.dropped.Load() }

func (b *SignalBus) drop(kind, token string) {
	b.dropped.Add(1)
	observability.RecordBusDrop(kind)
	b.logger.Warn("signal dropped, bus full",
		zap.String("kind", kind),
		zap.String("token", token))
}
