package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

// Default configuration values.
const (
	DefaultBirdeyeURL = "https://public-api.birdeye.so"
	DefaultHTTPTimeout = 15 * time.Second

	// MaxBatchSize is the provider's multi-price batch limit.
	MaxBatchSize = 100
)

// BirdeyeClient implements Provider against the Birdeye public API.
type BirdeyeClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// BirdeyeOption configures BirdeyeClient.
type BirdeyeOption func(*BirdeyeClient)

// WithBirdeyeURL overrides the API endpoint.
func WithBirdeyeURL(u string) BirdeyeOption {
	return func(c *BirdeyeClient) { c.baseURL = u }
}

// WithBirdeyeHTTPClient sets a custom http.Client.
func WithBirdeyeHTTPClient(hc *http.Client) BirdeyeOption {
	return func(c *BirdeyeClient) { c.client = hc }
}

// NewBirdeyeClient creates a market-data client.
func NewBirdeyeClient(apiKey string, logger *zap.Logger, opts ...BirdeyeOption) *BirdeyeClient {
	c := &BirdeyeClient{
		baseURL: DefaultBirdeyeURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Provider = (*BirdeyeClient)(nil)

// FetchSnapshots retrieves market snapshots for up to MaxBatchSize addresses.
func (c *BirdeyeClient) FetchSnapshots(ctx context.Context, addresses []string) (map[string]*domain.MarketSnapshot, error) {
	if len(addresses) == 0 {
		return map[string]*domain.MarketSnapshot{}, nil
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds provider limit %d", len(addresses), MaxBatchSize)
	}

	q := url.Values{}
	q.Set("list_address", strings.Join(addresses, ","))

	var resp struct {
		Data map[string]*struct {
			Value       float64 `json:"value"`
			MarketCap   float64 `json:"mc"`
			Liquidity   float64 `json:"liquidity"`
			Volume24hUSD float64 `json:"v24hUSD"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := c.get(ctx, "/defi/multi_price", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("provider reported failure")
	}

	now := time.Now().UnixMilli()
	result := make(map[string]*domain.MarketSnapshot, len(resp.Data))
	for addr, d := range resp.Data {
		if d == nil {
			// Provider returns null entries for unknown addresses.
			continue
		}
		result[addr] = &domain.MarketSnapshot{
			Address:     addr,
			Price:       d.Value,
			MarketCap:   d.MarketCap,
			Liquidity:   d.Liquidity,
			Volume24h:   d.Volume24hUSD,
			FetchedAtMs: now,
		}
	}
	return result, nil
}

// FetchPriceHistory retrieves recent price points for one instrument.
func (c *BirdeyeClient) FetchPriceHistory(ctx context.Context, address string, limit int) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("type", "5m")
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Data struct {
			Items []struct {
				UnixTime int64   `json:"unixTime"`
				Value    float64 `json:"value"`
			} `json:"items"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := c.get(ctx, "/defi/history_price", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("provider reported failure")
	}

	points := make([]domain.PricePoint, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		points = append(points, domain.PricePoint{
			TimestampMs: item.UnixTime * 1000,
			Price:       item.Value,
		})
	}
	return points, nil
}

// FetchTokenSecurity retrieves the safety assessment for one instrument.
func (c *BirdeyeClient) FetchTokenSecurity(ctx context.Context, address string) (*TokenSecurity, error) {
	q := url.Values{}
	q.Set("address", address)

	var resp struct {
		Data struct {
			MutableMetadata bool     `json:"mutableMetadata"`
			FreezeAuthority *string  `json:"freezeAuthority"`
			NonTransferable bool     `json:"nonTransferable"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := c.get(ctx, "/defi/token_security", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("provider reported failure")
	}

	sec := &TokenSecurity{
		Verified:        true,
		MutableMetadata: resp.Data.MutableMetadata,
		FreezeAuthority: resp.Data.FreezeAuthority != nil,
	}
	if resp.Data.NonTransferable {
		sec.Flags = append(sec.Flags, "non-transferable")
	}
	return sec, nil
}

// get performs one GET call. Retry policy lives in the cache layer, which
// owns the pacing budget; the raw client fails fast.
func (c *BirdeyeClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", "solana")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}
