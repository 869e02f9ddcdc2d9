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
	"github.com/sirupsen/logrus"
)

// heliusTipAccounts mirrors the teacher's HELIUS_TIP_ACCOUNTS rotation.
var heliusTipAccounts = []string{
	"4ACfpUFoaSD9bfPdeu6DBt89gB6ENTeHBXCAi87NhDEE",
	"D2L6yPZ2FmmmTKPgzaMKdhu6EWZcTpLy1Vhx8uvZe7NZ",
	"9bnz4RShgq1hAnLnZbP8kbgBg1kEmcJBYQq3gQbmnSta",
	"5VY91ws6B2hMmBFRsXkoAAdsPHBJwRfBht4DXox3xkwn",
	"2nyhqdwKcJZR2vcqCyrYsaPVdAnFoJjiksCXJ7hfEYgD",
	"2q5pghRs6arqVjRvT5gfgWfWcHWmw1ZuCzphgd5KfWGJ",
	"wyvPkWjVZz1M8fHQnMMCDTQDbkManefNNhweYk5WkcF",
	"3KCKozbAaF75qEU33jtzozcJ29yJuaLJTy2jFdzUY8bT",
	"4vieeGHPYPG2MmyPRcYjdiDmmhN3ww7hsFNap8pVN3Ey",
	"4TQLFNWK8AovT1gFvda5jfw2oJeRMKEmw7aH6MGBJ3or",
}

// RandomHeliusTipAccount picks one of the fixed tip accounts at random.
func RandomHeliusTipAccount() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(heliusTipAccounts[rand.Intn(len(heliusTipAccounts))])
}

type heliusSendResponse struct {
	Result *string         `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// FastConfig configures a FastProvider.
type FastConfig struct {
	BaseURL    string // e.g. http://fra-sender.helius-rpc.com
	SwqosOnly  bool
	PingPeriod time.Duration
	Logger     *logrus.Logger
}

// DefaultPingPeriod matches the teacher's 30-second keep-warm ping ticker.
const DefaultPingPeriod = 30 * time.Second

// FastProvider submits via Helius's fast-sender endpoint, grounded on
// original_source's pipeline/uploader/provider/helius/{facade,client}.rs.
type FastProvider struct {
	http       *http.Client
	sendURL    string
	pingURL    string
	pingPeriod time.Duration
	logger     *logrus.Logger
	stop       chan struct{}
}

func NewFastProvider(cfg FastConfig) *FastProvider {
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = DefaultPingPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	sendURL := cfg.BaseURL + "/fast"
	if cfg.SwqosOnly {
		sendURL += "?swqos_only=true"
	}
	return &FastProvider{
		http:       &http.Client{Timeout: 10 * time.Second},
		sendURL:    sendURL,
		pingURL:    cfg.BaseURL + "/ping",
		pingPeriod: cfg.PingPeriod,
		logger:     cfg.Logger,
		stop:       make(chan struct{}),
	}
}

func (p *FastProvider) Name() string { return "helius" }

// Submit POSTs to the fast-sender endpoint with skipPreflight=true and
// maxRetries=0 per spec.md §6's Helius contract.
func (p *FastProvider) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(txBytes)

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendTransaction",
		"params": []any{
			encoded,
			map[string]any{
				"encoding":      "base64",
				"skipPreflight": true,
				"maxRetries":    0,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sendURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("helius send request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed heliusSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode helius response: %w", err)
	}
	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		return "", fmt.Errorf("helius transaction error: %s", parsed.Error)
	}
	if parsed.Result == nil {
		return "", fmt.Errorf("helius response missing signature")
	}
	return *parsed.Result, nil
}

// Ping keeps the connection warm on a 30-second ticker, grounded on the
// teacher's HeliusClient.ping/periodic task pair in facade.rs.
func (p *FastProvider) Ping(ctx context.Context) error {
	ticker := time.NewTicker(p.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			return nil
		case <-ticker.C:
			if err := p.ping(ctx); err != nil {
				p.logger.WithError(err).Warn("helius ping failed")
			}
		}
	}
}

func (p *FastProvider) Stop() {
	close(p.stop)
}

func (p *FastProvider) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pingURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helius ping failed with status %d", resp.StatusCode)
	}
	return nil
}
