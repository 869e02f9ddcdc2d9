package submit

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/rpc"
)

// RPCCaller is the narrow shape of rpc.Client.Call this package depends on.
type RPCCaller interface {
	Call(ctx context.Context, method string, params interface{}, result interface{}) error
}

// DirectConfig configures DirectProvider's single-shot sendTransaction call,
// per spec.md §4.8: skip_preflight=true, small max_retries, and a deadline.
type DirectConfig struct {
	MaxRetries int
	Deadline   time.Duration
}

// DefaultDirectConfig matches the teacher's wallet.DefaultSendOptions, tuned
// for the bot's low-latency single-shot submission rather than a patient
// retrying client.
var DefaultDirectConfig = DirectConfig{MaxRetries: 0, Deadline: 2 * time.Second}

// DirectProvider submits via a single sendTransaction RPC call with
// skip_preflight=true, grounded on wallet.Wallet.SendTx's request shape.
type DirectProvider struct {
	rpc RPCCaller
	cfg DirectConfig
}

func NewDirectProvider(caller RPCCaller, cfg DirectConfig) *DirectProvider {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDirectConfig.Deadline
	}
	return &DirectProvider{rpc: caller, cfg: cfg}
}

func (p *DirectProvider) Name() string { return "direct" }

func (p *DirectProvider) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Deadline)
	defer cancel()

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(txBytes)

	params := []any{
		encoded,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       true,
			"preflightCommitment": "processed",
			"maxRetries":          p.cfg.MaxRetries,
		},
	}

	var resp struct {
		Result string        `json:"result"`
		Error  *rpc.RPCError `json:"error"`
	}
	if err := p.rpc.Call(ctx, "sendTransaction", params, &resp); err != nil {
		return "", fmt.Errorf("sendTransaction RPC failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction error: code=%d, message=%s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}
