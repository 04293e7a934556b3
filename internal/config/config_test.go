package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://rpc.example.com")
	t.Setenv("WALLET_SECRET_KEY", "4rQanLxTFvdgtLsGirqkBYLvSyvaQAINVALIDKEYFORTESTSONLY")
	t.Setenv("MARKETDATA_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.SignalInterval != 10*time.Minute {
		t.Errorf("SignalInterval = %v, want 10m", cfg.SignalInterval)
	}
	if cfg.MonitorInterval != 60*time.Second {
		t.Errorf("MonitorInterval = %v, want 60s", cfg.MonitorInterval)
	}
	if cfg.MaxPositionFraction != 0.1 {
		t.Errorf("MaxPositionFraction = %v, want 0.1", cfg.MaxPositionFraction)
	}
	if cfg.MinTradeLamports != 1_000_000 {
		t.Errorf("MinTradeLamports = %d, want 1000000", cfg.MinTradeLamports)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", cfg.MetricsAddr)
	}
	if cfg.SocialFeedEnabled() {
		t.Error("SocialFeedEnabled true without brokers")
	}
	if cfg.PriceFeedEnabled() {
		t.Error("PriceFeedEnabled true without endpoint")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("SOLANA_RPC_ENDPOINT", "")
	t.Setenv("WALLET_SECRET_KEY", "")
	t.Setenv("MARKETDATA_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing settings")
	}
	for _, key := range []string{"SOLANA_RPC_ENDPOINT", "WALLET_SECRET_KEY", "MARKETDATA_API_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("STORAGE_POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres backend without DSN")
	}

	t.Setenv("STORAGE_POSTGRES_DSN", "postgres://user:pw@localhost:5432/engine")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PostgresDSN == "" {
		t.Error("PostgresDSN not populated")
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadLists(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092 ,")
	t.Setenv("KAFKA_TOPIC", "social")
	t.Setenv("SIGNALS_WATCHLIST", "MintA,MintB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if len(cfg.Watchlist) != 2 || cfg.Watchlist[0] != "MintA" {
		t.Errorf("Watchlist = %v", cfg.Watchlist)
	}
	if !cfg.SocialFeedEnabled() {
		t.Error("SocialFeedEnabled false with brokers set")
	}
}

func TestLoadBrokersWithoutTopic(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_TOPIC", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for brokers without topic")
	}
}
