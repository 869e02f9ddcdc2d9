package submit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
)

// jitoTipAccounts mirrors the teacher's JITO_TIP_ACCOUNTS rotation: a fixed
// pool of tip accounts, one chosen at random per bundle to spread load.
var jitoTipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// RandomJitoTipAccount picks one of the fixed tip accounts at random, per
// spec.md §4.7 step 2's "rotated tip account".
func RandomJitoTipAccount() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(jitoTipAccounts[rand.Intn(len(jitoTipAccounts))])
}

type jitoBundleResponse struct {
	Result *string         `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// BundleProvider submits a transaction as a one-transaction Jito bundle,
// grounded on original_source's pipeline/uploader/provider/jito/entry.rs
// send_bundle_multi.
type BundleProvider struct {
	http *http.Client
	base string
	tips *TipFloorFetcher
}

// BundleConfig configures BundleProvider.
type BundleConfig struct {
	BaseURL string // e.g. https://frankfurt.mainnet.block-engine.jito.wtf
	Tips    *TipFloorFetcher
}

func NewBundleProvider(cfg BundleConfig) *BundleProvider {
	return &BundleProvider{
		http: &http.Client{Timeout: 10 * time.Second},
		base: cfg.BaseURL,
		tips: cfg.Tips,
	}
}

func (p *BundleProvider) Name() string { return "jito" }

// Submit POSTs a single-transaction bundle to {base}/api/v1/bundles, per
// spec.md §6's relay HTTP contract.
func (p *BundleProvider) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(txBytes)

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendBundle",
		"params": []any{
			[]string{encoded},
			map[string]any{"encoding": "base64"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal bundle request: %w", err)
	}

	url := p.base + "/api/v1/bundles"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("jito bundle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jito bundle submission failed with status %d", resp.StatusCode)
	}

	var parsed jitoBundleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode jito response: %w", err)
	}
	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		return "", fmt.Errorf("jito bundle error: %s", parsed.Error)
	}
	if parsed.Result == nil {
		return "", fmt.Errorf("jito response missing bundle id")
	}
	return *parsed.Result, nil
}

// TipLamports reads the tip-floor fetcher's cached percentile, falling back
// to a static minimum (1e-5 SOL) when no snapshot has landed yet — the same
// fallback the teacher's build_jito_tip_ix uses.
func (p *BundleProvider) TipLamports(percentile int) uint64 {
	const staticMinimumLamports = 10_000 // 0.00001 SOL
	if p.tips == nil {
		return staticMinimumLamports
	}
	snap, ok := p.tips.Latest()
	if !ok {
		return staticMinimumLamports
	}
	return snap.Lamports(percentile)
}
