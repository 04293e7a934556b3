package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/signals"
)

// socialEvent is the wire shape of one social-feed message.
type socialEvent struct {
	Address            string   `json:"address"`
	Symbol             string   `json:"symbol"`
	Score              float64  `json:"score"`
	Reasons            []string `json:"reasons"`
	MentionCount       int      `json:"mentionCount"`
	Sentiment          float64  `json:"sentiment"`
	InfluencerMentions int      `json:"influencerMentions"`
}

// SocialConsumer feeds Kafka social-sentiment events into a signal source
// drained on each aggregation cycle.
type SocialConsumer struct {
	client sarama.ConsumerGroup
	topic  string
	source *signals.FeedSource
	logger *zap.Logger

	ready  chan bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSocialConsumer creates a consumer group over the given brokers.
func NewSocialConsumer(brokers []string, groupID, topic string, source *signals.FeedSource, logger *zap.Logger) (*SocialConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Version = sarama.V2_8_0_0

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &SocialConsumer{
		client: client,
		topic:  topic,
		source: source,
		logger: logger,
		ready:  make(chan bool),
	}, nil
}

// Start begins consuming. Blocks until the first session is established.
func (c *SocialConsumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &socialGroupHandler{consumer: c, ready: c.ready}
			if err := c.client.Consume(ctx, []string{c.topic}, handler); err != nil {
				c.logger.Error("kafka consume failed", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
			c.ready = make(chan bool)
		}
	}()

	<-c.ready
	c.logger.Info("social consumer started", zap.String("topic", c.topic))
	return nil
}

// Close stops the consumer gracefully.
func (c *SocialConsumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.client.Close()
}

type socialGroupHandler struct {
	consumer *SocialConsumer
	ready    chan bool
}

func (h *socialGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *socialGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *socialGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.consumer.handleEvent(message.Value)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *SocialConsumer) handleEvent(value []byte) {
	var event socialEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Warn("malformed social event", zap.Error(err))
		return
	}
	if event.Address == "" {
		return
	}

	sig := domain.TokenSignal{
		Address: event.Address,
		Symbol:  event.Symbol,
		Score:   event.Score,
		Reasons: event.Reasons,
		Social: &domain.SocialMetrics{
			MentionCount:       event.MentionCount,
			Sentiment:          event.Sentiment,
			InfluencerMentions: event.InfluencerMentions,
		},
	}
	if !c.source.Submit(sig) {
		c.logger.Warn("social signal dropped, source buffer full",
			zap.String("address", event.Address))
	}
}
