// Package config loads engine settings from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the engine. Values come from
// environment variables; keys map by uppercasing and replacing dots with
// underscores (solana.rpc_endpoint -> SOLANA_RPC_ENDPOINT).
type Config struct {
	// Solana
	RPCEndpoint     string
	PriceWSEndpoint string

	// Wallet
	WalletSecretKey string

	// Market data
	MarketDataAPIKey  string
	MarketDataBaseURL string

	// Swap aggregator
	QuoteBaseURL string

	// Storage
	StorageBackend string // "memory" or "postgres"
	PostgresDSN    string
	ClickhouseDSN  string

	// Social feed (optional; disabled when no brokers configured)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Signal sources
	Watchlist []string

	// Cadences
	SignalInterval     time.Duration
	WalletSyncInterval time.Duration
	MonitorInterval    time.Duration

	// Risk
	MaxPositionFraction float64
	MaxLiquidityShare   float64
	MinTradeLamports    uint64

	// Exits
	StopLossPct     float64
	TakeProfitPct   float64
	TrailingStopPct float64

	// Observability
	MetricsAddr string
}

// Load reads a .env file if present, then resolves all settings from the
// environment. Missing required settings are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		RPCEndpoint:     v.GetString("solana.rpc_endpoint"),
		PriceWSEndpoint: v.GetString("solana.price_ws_endpoint"),

		WalletSecretKey: v.GetString("wallet.secret_key"),

		MarketDataAPIKey:  v.GetString("marketdata.api_key"),
		MarketDataBaseURL: v.GetString("marketdata.base_url"),

		QuoteBaseURL: v.GetString("quote.base_url"),

		StorageBackend: strings.ToLower(v.GetString("storage.backend")),
		PostgresDSN:    v.GetString("storage.postgres_dsn"),
		ClickhouseDSN:  v.GetString("storage.clickhouse_dsn"),

		KafkaBrokers: splitList(v.GetString("kafka.brokers")),
		KafkaTopic:   v.GetString("kafka.topic"),
		KafkaGroupID: v.GetString("kafka.group_id"),

		Watchlist: splitList(v.GetString("signals.watchlist")),

		SignalInterval:     v.GetDuration("signals.interval"),
		WalletSyncInterval: v.GetDuration("wallet.sync_interval"),
		MonitorInterval:    v.GetDuration("monitor.interval"),

		MaxPositionFraction: v.GetFloat64("risk.max_position_fraction"),
		MaxLiquidityShare:   v.GetFloat64("risk.max_liquidity_share"),
		MinTradeLamports:    v.GetUint64("risk.min_trade_lamports"),

		StopLossPct:     v.GetFloat64("exits.stop_loss_pct"),
		TakeProfitPct:   v.GetFloat64("exits.take_profit_pct"),
		TrailingStopPct: v.GetFloat64("exits.trailing_stop_pct"),

		MetricsAddr: v.GetString("metrics.addr"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("marketdata.base_url", "")
	v.SetDefault("quote.base_url", "")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("kafka.group_id", "trade-engine")
	v.SetDefault("signals.interval", 10*time.Minute)
	v.SetDefault("wallet.sync_interval", 10*time.Minute)
	v.SetDefault("monitor.interval", 60*time.Second)
	v.SetDefault("risk.max_position_fraction", 0.1)
	v.SetDefault("risk.max_liquidity_share", 0.02)
	v.SetDefault("risk.min_trade_lamports", 1_000_000)
	v.SetDefault("exits.stop_loss_pct", 0.20)
	v.SetDefault("exits.take_profit_pct", 0.50)
	v.SetDefault("exits.trailing_stop_pct", 0.20)
	v.SetDefault("metrics.addr", ":9090")
}

func (c *Config) validate() error {
	var missing []string
	if c.RPCEndpoint == "" {
		missing = append(missing, "SOLANA_RPC_ENDPOINT")
	}
	if c.WalletSecretKey == "" {
		missing = append(missing, "WALLET_SECRET_KEY")
	}
	if c.MarketDataAPIKey == "" {
		missing = append(missing, "MARKETDATA_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.StorageBackend {
	case "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires STORAGE_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want memory or postgres)", c.StorageBackend)
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_BROKERS set but KAFKA_TOPIC is empty")
	}
	return nil
}

// SocialFeedEnabled reports whether a Kafka social feed is configured.
func (c *Config) SocialFeedEnabled() bool { return len(c.KafkaBrokers) > 0 }

// PriceFeedEnabled reports whether a price WebSocket feed is configured.
func (c *Config) PriceFeedEnabled() bool { return c.PriceWSEndpoint != "" }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
