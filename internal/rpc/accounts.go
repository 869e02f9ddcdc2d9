package rpc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// accountInfoValue is the "value" field of a getAccountInfo/getMultipleAccounts
// response: Data is always requested as ["base64"], never "jsonParsed" — the
// decoder registry (C2) needs raw bytes, not a program-specific JSON shape.
type accountInfoValue struct {
	Lamports uint64   `json:"lamports"`
	Owner    string   `json:"owner"`
	Data     []string `json:"data"`
}

func (v *accountInfoValue) decode(addr chain.Addr, slot uint64) (chain.AccountState, error) {
	owner, err := solana.PublicKeyFromBase58(v.Owner)
	if err != nil {
		return chain.AccountState{}, fmt.Errorf("rpc: invalid owner %q: %w", v.Owner, err)
	}
	var data []byte
	if len(v.Data) > 0 {
		data, err = base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return chain.AccountState{}, fmt.Errorf("rpc: invalid base64 account data: %w", err)
		}
	}
	return chain.AccountState{
		PubKey:   addr,
		Slot:     slot,
		Lamports: v.Lamports,
		Owner:    owner,
		Data:     data,
	}, nil
}

// GetAccountInfo implements pools.AccountRPC: a single-account fetch used as
// the last-resort tier of the pool cache's load chain (spec.md §4.3).
func (c *Client) GetAccountInfo(ctx context.Context, addr chain.Addr) (chain.AccountState, error) {
	var resp struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value *accountInfoValue `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{addr.String(), map[string]any{"encoding": "base64"}}
	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return chain.AccountState{}, fmt.Errorf("getAccountInfo: %w", err)
	}
	if resp.Error != nil {
		return chain.AccountState{}, resp.Error
	}
	if resp.Result.Value == nil {
		return chain.AccountState{}, fmt.Errorf("getAccountInfo: account %s not found", addr)
	}
	return resp.Result.Value.decode(addr, resp.Result.Context.Slot)
}

// GetMultipleAccounts implements pools.coalescer's BatchFetcher: one
// getMultipleAccounts round trip for a batch of addresses, skipping entries
// the node reports as absent rather than erroring the whole batch.
func (c *Client) GetMultipleAccounts(ctx context.Context, addrs []chain.Addr) (map[chain.Addr]chain.AccountState, error) {
	keys := make([]string, len(addrs))
	for i, a := range addrs {
		keys[i] = a.String()
	}

	var resp struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value []*accountInfoValue `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{keys, map[string]any{"encoding": "base64"}}
	if err := c.Call(ctx, "getMultipleAccounts", params, &resp); err != nil {
		return nil, fmt.Errorf("getMultipleAccounts: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	out := make(map[chain.Addr]chain.AccountState, len(addrs))
	for i, v := range resp.Result.Value {
		if v == nil {
			continue
		}
		state, err := v.decode(addrs[i], resp.Result.Context.Slot)
		if err != nil {
			return nil, err
		}
		out[addrs[i]] = state
	}
	return out, nil
}

// GetAccounts implements ingress.AccountPollSource by wrapping GetMultipleAccounts
// — the RPC-polling StreamProvider fallback reuses the exact same batch call the
// pool cache's coalescer uses, matching spec.md §4.4's notion of the poller as
// a (slower) substitute for a push feed rather than a separate RPC surface.
func (c *Client) GetAccounts(ctx context.Context, addrs []chain.Addr) (map[chain.Addr]chain.AccountState, error) {
	return c.GetMultipleAccounts(ctx, addrs)
}
