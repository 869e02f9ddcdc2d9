package rpc

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

func jsonRPCServer(t *testing.T, handler func(method string, params []any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result := handler(req.Method, req.Params)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  result,
		}))
	}))
}

func TestClient_GetAccountInfo(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	data := []byte{1, 2, 3, 4}

	srv := jsonRPCServer(t, func(method string, params []any) any {
		assert.Equal(t, "getAccountInfo", method)
		return map[string]any{
			"context": map[string]any{"slot": 42},
			"value": map[string]any{
				"lamports": 1000,
				"owner":    owner.String(),
				"data":     []string{base64.StdEncoding.EncodeToString(data), "base64"},
			},
		}
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 0})
	state, err := client.GetAccountInfo(t.Context(), addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), state.Slot)
	assert.Equal(t, uint64(1000), state.Lamports)
	assert.True(t, state.Owner.Equals(owner))
	assert.Equal(t, data, state.Data)
}

func TestClient_GetAccountInfo_NotFound(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	srv := jsonRPCServer(t, func(method string, params []any) any {
		return map[string]any{"context": map[string]any{"slot": 1}, "value": nil}
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 0})
	_, err := client.GetAccountInfo(t.Context(), addr)
	assert.Error(t, err)
}

func TestClient_GetMultipleAccounts_SkipsAbsentEntries(t *testing.T) {
	a1 := solana.NewWallet().PublicKey()
	a2 := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	srv := jsonRPCServer(t, func(method string, params []any) any {
		assert.Equal(t, "getMultipleAccounts", method)
		return map[string]any{
			"context": map[string]any{"slot": 7},
			"value": []any{
				map[string]any{
					"lamports": 500,
					"owner":    owner.String(),
					"data":     []string{base64.StdEncoding.EncodeToString([]byte{9}), "base64"},
				},
				nil,
			},
		}
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 0})
	states, err := client.GetMultipleAccounts(t.Context(), []chain.Addr{a1, a2})
	require.NoError(t, err)
	assert.Len(t, states, 1)
	assert.Equal(t, uint64(500), states[a1].Lamports)
	_, ok := states[a2]
	assert.False(t, ok)
}
