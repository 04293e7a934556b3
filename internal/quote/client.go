// Package quote retrieves swap quotes and prebuilt swap transactions from a
// Jupiter-compatible aggregator.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://quote-api.jup.ag/v6"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// Quote is a swap quote. Raw preserves the aggregator payload because the
// swap endpoint requires it verbatim.
type Quote struct {
	InputMint  string
	OutputMint string
	InAmount   uint64
	OutAmount  uint64
	Raw        json.RawMessage
}

// Client retrieves quotes and swap transactions with bounded retry.
type Client struct {
	baseURL     string
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	maxDelay    time.Duration
	logger      *zap.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the aggregator endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMaxAttempts sets the retry budget for each call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a quote client.
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote requests a swap quote for amount base units of inputMint into
// outputMint at the given slippage tolerance.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	endpoint := c.baseURL + "/quote?" + q.Encode()

	body, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	var resp struct {
		InputMint  string `json:"inputMint"`
		OutputMint string `json:"outputMint"`
		InAmount   string `json:"inAmount"`
		OutAmount  string `json:"outAmount"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}
	if resp.OutAmount == "" || resp.OutAmount == "0" {
		return nil, fmt.Errorf("quote has no output amount")
	}

	inAmount, err := strconv.ParseUint(resp.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse inAmount %q: %w", resp.InAmount, err)
	}
	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse outAmount %q: %w", resp.OutAmount, err)
	}

	return &Quote{
		InputMint:  resp.InputMint,
		OutputMint: resp.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		Raw:        json.RawMessage(body),
	}, nil
}

// GetSwapTransaction requests a prebuilt serialized swap transaction for a
// previously obtained quote. Returns the base64-encoded transaction.
func (c *Client) GetSwapTransaction(ctx context.Context, q *Quote, userPublicKey string) (string, error) {
	if q == nil || len(q.Raw) == 0 {
		return "", fmt.Errorf("quote is required")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"quoteResponse":             q.Raw,
		"userPublicKey":             userPublicKey,
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
	})
	if err != nil {
		return "", fmt.Errorf("marshal swap request: %w", err)
	}

	endpoint := c.baseURL + "/swap"

	body, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("get swap transaction: %w", err)
	}

	var resp struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal swap response: %w", err)
	}
	if resp.SwapTransaction == "" {
		return "", fmt.Errorf("swap response missing transaction")
	}
	return resp.SwapTransaction, nil
}

// doWithRetry executes a request with bounded exponential backoff. The
// buildReq function produces a fresh request per attempt because bodies are
// consumed on send.
func (c *Client) doWithRetry(ctx context.Context, buildReq func() (*http.Request, error)) ([]byte, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			observability.RecordQuoteRetry()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			c.logger.Warn("quote request failed",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Retry rate limits and server errors; 4xx responses are terminal.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 256))
			c.logger.Warn("quote request rejected, retrying",
				zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 256))
		}

		return body, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", c.maxAttempts, lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
