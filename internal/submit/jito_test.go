package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleProvider_SubmitPostsBase64Bundle(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bundles", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"bundle-abc","error":null}`))
	}))
	defer srv.Close()

	p := NewBundleProvider(BundleConfig{BaseURL: srv.URL})
	id, err := p.Submit(context.Background(), newTestTransaction(t))
	require.NoError(t, err)
	assert.Equal(t, "bundle-abc", id)

	assert.Equal(t, "sendBundle", gotBody["method"])
	params, ok := gotBody["params"].([]any)
	require.True(t, ok)
	txList, ok := params[0].([]any)
	require.True(t, ok)
	assert.Len(t, txList, 1)
}

func TestBundleProvider_SubmitPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewBundleProvider(BundleConfig{BaseURL: srv.URL})
	_, err := p.Submit(context.Background(), newTestTransaction(t))
	require.Error(t, err)
}

func TestBundleProvider_SubmitPropagatesBundleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null,"error":{"code":-1,"message":"rejected"}}`))
	}))
	defer srv.Close()

	p := NewBundleProvider(BundleConfig{BaseURL: srv.URL})
	_, err := p.Submit(context.Background(), newTestTransaction(t))
	require.Error(t, err)
}

func TestBundleProvider_TipLamportsFallsBackWithoutFetcher(t *testing.T) {
	p := NewBundleProvider(BundleConfig{BaseURL: "http://example.invalid"})
	assert.Equal(t, uint64(10_000), p.TipLamports(75))
}

func TestBundleProvider_TipLamportsReadsFetcherSnapshot(t *testing.T) {
	tips := NewTipFloorFetcher(nil, 0)
	tips.latest = &TipFloorData{LandedTips75th: 0.00002}
	p := NewBundleProvider(BundleConfig{BaseURL: "http://example.invalid", Tips: tips})
	assert.Equal(t, uint64(20_000), p.TipLamports(75))
}

func TestRandomJitoTipAccount_ReturnsKnownAccount(t *testing.T) {
	acct := RandomJitoTipAccount()
	found := false
	for _, a := range jitoTipAccounts {
		if acct.String() == a {
			found = true
			break
		}
	}
	assert.True(t, found)
}
