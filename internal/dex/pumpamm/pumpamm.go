// Package pumpamm decodes pump.fun's post-migration AMM pool accounts
// (constant-product, vault-based). spec.md §4.2 names this family as its
// canonical constant-product example: "mid = reserve_quote / reserve_base
// with decimal normalization". No pack example gives the exact byte layout
// (see SPEC_FULL.md §12), so the fixed-offset convention matches the other
// simple families.
package pumpamm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

func init() {
	dex.RegisterOwner(dex.PumpAmm, ProgramID)
}

const (
	offsetBaseMint   = 8
	offsetQuoteMint  = 40
	offsetBaseVault  = 72
	offsetQuoteVault = 104
	offsetDecimals   = 136
	minAccountLength = 138
)

// Pool is the decoded subset of a pump.fun AMM pool account.
type Pool struct {
	BaseMintAddr   chain.Addr
	QuoteMintAddr  chain.Addr
	BaseVaultAddr  chain.Addr
	QuoteVaultAddr chain.Addr
	BaseDecimals   uint8
	QuoteDecimals  uint8
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.BaseMintAddr }
func (p *Pool) QuoteMint() chain.Addr  { return p.QuoteMintAddr }
func (p *Pool) BaseVault() chain.Addr  { return p.BaseVaultAddr }
func (p *Pool) QuoteVault() chain.Addr { return p.QuoteVaultAddr }

func (p *Pool) MidPrice(ctx context.Context, from, to chain.Addr, fetcher dex.AccountFetcher) (dex.Quote, error) {
	if fetcher == nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: MidPrice requires a non-nil account fetcher")
	}
	base, err := fetcher.GetAccount(ctx, p.BaseVaultAddr)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: fetching base vault: %w", err)
	}
	quote, err := fetcher.GetAccount(ctx, p.QuoteVaultAddr)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: fetching quote vault: %w", err)
	}
	baseAmt, err := splTokenAmount(base.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: base vault: %w", err)
	}
	quoteAmt, err := splTokenAmount(quote.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: quote vault: %w", err)
	}
	price, err := dex.ConstantProductMidPrice(baseAmt, quoteAmt, int8(p.BaseDecimals), int8(p.QuoteDecimals))
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pumpamm: %w", err)
	}
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

func splTokenAmount(data []byte) (*big.Int, error) {
	if len(data) < 72 {
		return nil, dex.ErrShortBuffer
	}
	var amount uint64
	for i := 0; i < 8; i++ {
		amount |= uint64(data[64+i]) << (8 * i)
	}
	return new(big.Int).SetUint64(amount), nil
}

// Decode parses the fixed-layout subset of a pump.fun AMM pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("pumpamm: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		BaseDecimals:  data[offsetDecimals],
		QuoteDecimals: data[offsetDecimals+1],
	}
	copy(p.BaseMintAddr[:], data[offsetBaseMint:offsetBaseMint+32])
	copy(p.QuoteMintAddr[:], data[offsetQuoteMint:offsetQuoteMint+32])
	copy(p.BaseVaultAddr[:], data[offsetBaseVault:offsetBaseVault+32])
	copy(p.QuoteVaultAddr[:], data[offsetQuoteVault:offsetQuoteVault+32])
	return p, nil
}

const swapIxPoolAccountIndex = 0

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("pumpamm: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("pumpamm: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("pumpamm: BuildMevBotIxAccounts called with non-pump.fun-AMM pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.BaseVaultAddr, IsWritable: true},
		{PubKey: p.QuoteVaultAddr, IsWritable: true},
		{PubKey: p.BaseMintAddr},
		{PubKey: p.QuoteMintAddr},
		{PubKey: solana.TokenProgramID},
	}, nil
}
