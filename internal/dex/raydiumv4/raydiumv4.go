// Package raydiumv4 decodes Raydium's legacy V4 (OpenBook-backed constant
// product) pool accounts. No pack example gives this family's exact byte
// layout (see SPEC_FULL.md §12); it follows the same fixed-offset
// convention as meteoradammv2, reserves read from vault token accounts,
// mid-price via the teacher's constant-product formula.
package raydiumv4

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

func init() {
	dex.RegisterOwner(dex.RaydiumV4, ProgramID)
}

const (
	offsetCoinMint       = 400
	offsetPcMint         = 432
	offsetCoinVault      = 464
	offsetPcVault        = 496
	offsetCoinDecimals   = 40
	offsetPcDecimals     = 48
	minAccountLength     = 528
)

// Pool is the decoded subset of a Raydium V4 AMM pool account, field names
// matching the public "coin"/"pc" terminology Raydium's own SDK uses.
type Pool struct {
	CoinMint       chain.Addr
	PcMint         chain.Addr
	CoinVault      chain.Addr
	PcVault        chain.Addr
	CoinDecimals   uint64
	PcDecimals     uint64
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.CoinMint }
func (p *Pool) QuoteMint() chain.Addr  { return p.PcMint }
func (p *Pool) BaseVault() chain.Addr  { return p.CoinVault }
func (p *Pool) QuoteVault() chain.Addr { return p.PcVault }

func (p *Pool) MidPrice(ctx context.Context, from, to chain.Addr, fetcher dex.AccountFetcher) (dex.Quote, error) {
	if fetcher == nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: MidPrice requires a non-nil account fetcher")
	}
	base, err := fetcher.GetAccount(ctx, p.CoinVault)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: fetching coin vault: %w", err)
	}
	quote, err := fetcher.GetAccount(ctx, p.PcVault)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: fetching pc vault: %w", err)
	}
	baseAmt, err := splTokenAmount(base.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: coin vault: %w", err)
	}
	quoteAmt, err := splTokenAmount(quote.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: pc vault: %w", err)
	}
	price, err := dex.ConstantProductMidPrice(baseAmt, quoteAmt, int8(p.CoinDecimals), int8(p.PcDecimals))
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumv4: %w", err)
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

// Decode parses the fixed-layout subset of a Raydium V4 pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("raydiumv4: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		CoinDecimals: leU64(data[offsetCoinDecimals:]),
		PcDecimals:   leU64(data[offsetPcDecimals:]),
	}
	copy(p.CoinMint[:], data[offsetCoinMint:offsetCoinMint+32])
	copy(p.PcMint[:], data[offsetPcMint:offsetPcMint+32])
	copy(p.CoinVault[:], data[offsetCoinVault:offsetCoinVault+32])
	copy(p.PcVault[:], data[offsetPcVault:offsetPcVault+32])
	return p, nil
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

const swapIxPoolAccountIndex = 1

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("raydiumv4: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("raydiumv4: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("raydiumv4: BuildMevBotIxAccounts called with non-Raydium-V4 pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.CoinVault, IsWritable: true},
		{PubKey: p.PcVault, IsWritable: true},
		{PubKey: p.CoinMint},
		{PubKey: p.PcMint},
		{PubKey: solana.TokenProgramID},
	}, nil
}
