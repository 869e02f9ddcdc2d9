// Package meteoradammv2 decodes Meteora's DAMM v2 (constant-product)
// pools. No pack example gives this family's exact byte layout (see
// SPEC_FULL.md §12), so it follows the same discriminator + fixed-field
// layout convention as raydiumcp, with reserves read from the vault token
// accounts rather than embedded, and mid-price computed with the teacher's
// constant-product formula (orca/math.go), generalized in
// internal/dex.ConstantProductMidPrice.
package meteoradammv2

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd2bA9QmcZ")

func init() {
	dex.RegisterOwner(dex.MeteoraDammV2, ProgramID)
}

const (
	offsetTokenAMint  = 8
	offsetTokenBMint  = 40
	offsetTokenAVault = 72
	offsetTokenBVault = 104
	offsetDecimals    = 136
	minAccountLength  = 138
)

// Pool is the decoded subset of a Meteora DAMM v2 pool account.
type Pool struct {
	TokenAMint     chain.Addr
	TokenBMint     chain.Addr
	TokenAVault    chain.Addr
	TokenBVault    chain.Addr
	TokenADecimals uint8
	TokenBDecimals uint8
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.TokenAMint }
func (p *Pool) QuoteMint() chain.Addr  { return p.TokenBMint }
func (p *Pool) BaseVault() chain.Addr  { return p.TokenAVault }
func (p *Pool) QuoteVault() chain.Addr { return p.TokenBVault }

func (p *Pool) MidPrice(ctx context.Context, from, to chain.Addr, fetcher dex.AccountFetcher) (dex.Quote, error) {
	if fetcher == nil {
		return dex.Quote{}, fmt.Errorf("meteoradammv2: MidPrice requires a non-nil account fetcher")
	}
	baseReserve, quoteReserve, err := vaultReserves(ctx, fetcher, p.TokenAVault, p.TokenBVault)
	if err != nil {
		return dex.Quote{}, err
	}
	price, err := dex.ConstantProductMidPrice(baseReserve, quoteReserve, int8(p.TokenADecimals), int8(p.TokenBDecimals))
	if err != nil {
		return dex.Quote{}, fmt.Errorf("meteoradammv2: %w", err)
	}
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

func vaultReserves(ctx context.Context, fetcher dex.AccountFetcher, baseVault, quoteVault chain.Addr) (*big.Int, *big.Int, error) {
	base, err := fetcher.GetAccount(ctx, baseVault)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching base vault: %w", err)
	}
	quote, err := fetcher.GetAccount(ctx, quoteVault)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching quote vault: %w", err)
	}
	baseAmt, err := splTokenAmount(base.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("base vault: %w", err)
	}
	quoteAmt, err := splTokenAmount(quote.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("quote vault: %w", err)
	}
	return baseAmt, quoteAmt, nil
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

// Decode parses the fixed-layout subset of a Meteora DAMM v2 pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("meteoradammv2: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		TokenADecimals: data[offsetDecimals],
		TokenBDecimals: data[offsetDecimals+1],
	}
	copy(p.TokenAMint[:], data[offsetTokenAMint:offsetTokenAMint+32])
	copy(p.TokenBMint[:], data[offsetTokenBMint:offsetTokenBMint+32])
	copy(p.TokenAVault[:], data[offsetTokenAVault:offsetTokenAVault+32])
	copy(p.TokenBVault[:], data[offsetTokenBVault:offsetTokenBVault+32])
	return p, nil
}

const swapIxPoolAccountIndex = 1

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("meteoradammv2: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("meteoradammv2: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("meteoradammv2: BuildMevBotIxAccounts called with non-Meteora-DAMM-v2 pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.TokenAVault, IsWritable: true},
		{PubKey: p.TokenBVault, IsWritable: true},
		{PubKey: p.TokenAMint},
		{PubKey: p.TokenBMint},
		{PubKey: solana.TokenProgramID},
	}, nil
}
