package trader

import (
	"context"

	"go.uber.org/zap"

	"solana-trade-engine/internal/bus"
)

// Consume drains the signal bus until ctx is cancelled. Each signal is
// handled synchronously; per-trade failures are absorbed and logged, they
// never stop the loop.
func (t *Trader) Consume(ctx context.Context, b *bus.SignalBus) {
	for {
		select {
		case <-ctx.Done():
			return

		case sig := <-b.Buy():
			if _, err := t.HandleBuy(ctx, sig); err != nil {
				t.logger.Error("buy handling failed",
					zap.String("token", sig.TokenAddress),
					zap.Error(err))
			}

		case sig := <-b.Sell():
			if _, err := t.HandleSell(ctx, sig); err != nil {
				t.logger.Error("sell handling failed",
					zap.String("token", sig.TokenAddress),
					zap.Error(err))
			}

		case sig := <-b.Price():
			// Externally observed prices are informational; snapshots
			// remain owned by the market data cache.
			t.logger.Debug("price observed",
				zap.String("token", sig.TokenAddress),
				zap.Float64("price", sig.Price))
		}
	}
}
