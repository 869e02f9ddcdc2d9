// Package vertigo decodes Vertigo pool accounts. No pack example gives this
// family's exact byte layout (see SPEC_FULL.md §12); same inline-reserve
// convention as solfi, since Vertigo is also a small, single-account
// constant-product AMM.
package vertigo

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("vrTGoBuy5QkKJpwqFTjSqRTB4cb8rXQoRBUEWyfS4vK")

func init() {
	dex.RegisterOwner(dex.Vertigo, ProgramID)
}

const (
	offsetBaseMint     = 8
	offsetQuoteMint    = 40
	offsetBaseVault    = 72
	offsetQuoteVault   = 104
	offsetBaseReserve  = 136
	offsetQuoteReserve = 144
	offsetDecimals     = 152
	minAccountLength   = 154
)

// Pool is the decoded subset of a Vertigo pool account.
type Pool struct {
	BaseMintAddr  chain.Addr
	QuoteMintAddr chain.Addr
	BaseVaultAddr chain.Addr
	QuoteVaultAddr chain.Addr
	BaseReserve   uint64
	QuoteReserve  uint64
	BaseDecimals  uint8
	QuoteDecimals uint8
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.BaseMintAddr }
func (p *Pool) QuoteMint() chain.Addr  { return p.QuoteMintAddr }
func (p *Pool) BaseVault() chain.Addr  { return p.BaseVaultAddr }
func (p *Pool) QuoteVault() chain.Addr { return p.QuoteVaultAddr }

func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	price, err := dex.ConstantProductMidPrice(
		new(big.Int).SetUint64(p.BaseReserve), new(big.Int).SetUint64(p.QuoteReserve),
		int8(p.BaseDecimals), int8(p.QuoteDecimals))
	if err != nil {
		return dex.Quote{}, fmt.Errorf("vertigo: %w", err)
	}
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// Decode parses the fixed-layout subset of a Vertigo pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("vertigo: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		BaseReserve:   binary.LittleEndian.Uint64(data[offsetBaseReserve:]),
		QuoteReserve:  binary.LittleEndian.Uint64(data[offsetQuoteReserve:]),
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
		return chain.Addr{}, fmt.Errorf("vertigo: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("vertigo: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("vertigo: BuildMevBotIxAccounts called with non-Vertigo pool data")
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
