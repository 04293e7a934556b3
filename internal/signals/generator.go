package signals

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/idhash"
	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/solana"
)

// FallbackBuyLamports is the conservative SOL position taken when no
// instrument qualifies (0.1 SOL).
const FallbackBuyLamports = domain.LamportsPerSOL / 10

// GeneratorRecommenderID tags buy intents produced by the scoring pipeline.
const GeneratorRecommenderID = "signal-scorer"

// Generator runs one signal-generation cycle: aggregate, rank, emit the top
// candidate as a buy intent. AmountLamports is left zero for scored
// candidates so the orchestrator sizes the trade under its risk limits; only
// the fallback carries a fixed size.
type Generator struct {
	aggregator *Aggregator
	scorer     *Scorer
	publish    func(domain.BuySignal) bool
	logger     *zap.Logger
	now        func() time.Time
}

func NewGenerator(aggregator *Aggregator, scorer *Scorer, publish func(domain.BuySignal) bool, logger *zap.Logger) *Generator {
	return &Generator{
		aggregator: aggregator,
		scorer:     scorer,
		publish:    publish,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one cycle and returns the published intent.
func (g *Generator) Run(ctx context.Context) (*domain.BuySignal, error) {
	ranked := g.scorer.Rank(g.aggregator.Aggregate(ctx))

	var intent domain.BuySignal
	if len(ranked) == 0 {
		g.logger.Info("no instrument qualified, falling back to base currency")
		intent = domain.BuySignal{
			PositionID:     idhash.NewPositionID(solana.WSOLMint, GeneratorRecommenderID, domain.DirectionBuy, g.now().UnixMilli()),
			TokenAddress:   solana.WSOLMint,
			AmountLamports: FallbackBuyLamports,
			RecommenderID:  GeneratorRecommenderID,
			Reason:         "fallback: no qualifying instrument",
		}
	} else {
		top := ranked[0]
		intent = domain.BuySignal{
			PositionID:    idhash.NewPositionID(top.Address, GeneratorRecommenderID, domain.DirectionBuy, g.now().UnixMilli()),
			TokenAddress:  top.Address,
			RecommenderID: GeneratorRecommenderID,
			Reason:        strings.Join(top.Reasons, "; "),
		}
		g.logger.Info("buy candidate selected",
			zap.String("address", top.Address),
			zap.String("symbol", top.Symbol),
			zap.Float64("score", top.Score))
	}

	if !g.publish(intent) {
		g.logger.Warn("buy signal dropped, bus full",
			zap.String("address", intent.TokenAddress))
		return nil, nil
	}
	observability.RecordBuyPublished()
	return &intent, nil
}
