package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 123},
				"value":   uint64(88_000_000),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	balance, err := client.GetBalance(context.Background(), "wallet123")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 88_000_000 {
		t.Errorf("expected 88000000 lamports, got %d", balance)
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"blockhash":            "9sHcv6xwn9YkB8nxTUGKDwPwNnmqVp5oLjsa4kqvGKzQ",
					"lastValidBlockHeight": 100,
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	hash, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if hash != "9sHcv6xwn9YkB8nxTUGKDwPwNnmqVp5oLjsa4kqvGKzQ" {
		t.Errorf("unexpected blockhash %q", hash)
	}
}

func TestHTTPClient_GetSignatureStatus(t *testing.T) {
	tests := []struct {
		name          string
		value         interface{}
		wantNil       bool
		wantConfirmed bool
	}{
		{
			name:    "unknown signature",
			value:   []interface{}{nil},
			wantNil: true,
		},
		{
			name: "confirmed",
			value: []interface{}{map[string]interface{}{
				"slot":               1000,
				"confirmations":      5,
				"confirmationStatus": "confirmed",
				"err":                nil,
			}},
			wantConfirmed: true,
		},
		{
			name: "finalized",
			value: []interface{}{map[string]interface{}{
				"slot":               1000,
				"confirmationStatus": "finalized",
				"err":                nil,
			}},
			wantConfirmed: true,
		},
		{
			name: "processed only",
			value: []interface{}{map[string]interface{}{
				"slot":               1000,
				"confirmationStatus": "processed",
				"err":                nil,
			}},
			wantConfirmed: false,
		},
		{
			name: "failed on chain",
			value: []interface{}{map[string]interface{}{
				"slot":               1000,
				"confirmationStatus": "finalized",
				"err":                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			}},
			wantConfirmed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req rpcRequest
				json.NewDecoder(r.Body).Decode(&req)

				resp := map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"result":  map[string]interface{}{"value": tt.value},
				}
				json.NewEncoder(w).Encode(resp)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL)

			status, err := client.GetSignatureStatus(context.Background(), "sig123")
			if err != nil {
				t.Fatalf("GetSignatureStatus: %v", err)
			}

			if tt.wantNil {
				if status != nil {
					t.Fatalf("expected nil status, got %+v", status)
				}
				return
			}
			if status == nil {
				t.Fatal("expected status, got nil")
			}
			if status.Confirmed() != tt.wantConfirmed {
				t.Errorf("Confirmed() = %v, want %v", status.Confirmed(), tt.wantConfirmed)
			}
		})
	}
}

func TestHTTPClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": uint64(42)},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxRetries(3))

	balance, err := client.GetBalance(context.Background(), "wallet123")
	if err != nil {
		t.Fatalf("GetBalance after retries: %v", err)
	}
	if balance != 42 {
		t.Errorf("expected 42, got %d", balance)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "invalid params"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.GetBalance(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC error should not be retried, got %d calls", calls.Load())
	}
}
