package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func quoteResponse() map[string]interface{} {
	return map[string]interface{}{
		"inputMint":  "So11111111111111111111111111111111111111112",
		"outputMint": "mintB",
		"inAmount":   "50000000",
		"outAmount":  "123456789",
	}
}

func TestClient_GetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "50000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "150", r.URL.Query().Get("slippageBps"))
		json.NewEncoder(w).Encode(quoteResponse())
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	q, err := client.GetQuote(context.Background(),
		"So11111111111111111111111111111111111111112", "mintB", 50_000_000, 150)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), q.InAmount)
	assert.Equal(t, uint64(123_456_789), q.OutAmount)
	assert.NotEmpty(t, q.Raw)
}

func TestClient_GetQuote_EmptyOutAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := quoteResponse()
		resp["outAmount"] = "0"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	_, err := client.GetQuote(context.Background(), "mintA", "mintB", 1000, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output amount")
}

func TestClient_GetQuote_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(quoteResponse())
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(),
		WithBaseURL(server.URL), WithRetryDelay(time.Millisecond), WithMaxAttempts(3))

	q, err := client.GetQuote(context.Background(), "mintA", "mintB", 1000, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456_789), q.OutAmount)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetQuote_BudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(),
		WithBaseURL(server.URL), WithRetryDelay(time.Millisecond), WithMaxAttempts(3))

	_, err := client.GetQuote(context.Background(), "mintA", "mintB", 1000, 50)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetQuote_ClientErrorTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown mint"}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(),
		WithBaseURL(server.URL), WithRetryDelay(time.Millisecond), WithMaxAttempts(3))

	_, err := client.GetQuote(context.Background(), "mintA", "mintB", 1000, 50)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestClient_GetSwapTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/quote" {
			json.NewEncoder(w).Encode(quoteResponse())
			return
		}

		assert.Equal(t, "/swap", r.URL.Path)
		var req map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "quoteResponse")
		assert.Contains(t, req, "userPublicKey")

		json.NewEncoder(w).Encode(map[string]string{"swapTransaction": "AQIDBA=="})
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	q, err := client.GetQuote(context.Background(), "mintA", "mintB", 1000, 50)
	require.NoError(t, err)

	tx, err := client.GetSwapTransaction(context.Background(), q, "walletPubkey")
	require.NoError(t, err)
	assert.Equal(t, "AQIDBA==", tx)
}
