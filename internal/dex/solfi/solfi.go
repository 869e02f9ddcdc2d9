// Package solfi decodes Solfi pool accounts. No pack example gives this
// family's exact byte layout (see SPEC_FULL.md §12); unlike the vault-
// reading families, Solfi pools keep their reserves inline in the account,
// so mid_price needs no companion-account fetch.
package solfi

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("SoLFiHG9TfgtdUXUjWAxi3LtvYuFyDLVhBWxdMZxyCe")

func init() {
	dex.RegisterOwner(dex.Solfi, ProgramID)
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

// Pool is the decoded subset of a Solfi pool account.
type Pool struct {
	Mint0         chain.Addr
	Mint1         chain.Addr
	Vault0        chain.Addr
	Vault1        chain.Addr
	Reserve0      uint64
	Reserve1      uint64
	Decimals0     uint8
	Decimals1     uint8
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.Mint0 }
func (p *Pool) QuoteMint() chain.Addr  { return p.Mint1 }
func (p *Pool) BaseVault() chain.Addr  { return p.Vault0 }
func (p *Pool) QuoteVault() chain.Addr { return p.Vault1 }

func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	price, err := dex.ConstantProductMidPrice(
		new(big.Int).SetUint64(p.Reserve0), new(big.Int).SetUint64(p.Reserve1),
		int8(p.Decimals0), int8(p.Decimals1))
	if err != nil {
		return dex.Quote{}, fmt.Errorf("solfi: %w", err)
	}
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// Decode parses the fixed-layout subset of a Solfi pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("solfi: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		Reserve0:  binary.LittleEndian.Uint64(data[offsetBaseReserve:]),
		Reserve1:  binary.LittleEndian.Uint64(data[offsetQuoteReserve:]),
		Decimals0: data[offsetDecimals],
		Decimals1: data[offsetDecimals+1],
	}
	copy(p.Mint0[:], data[offsetBaseMint:offsetBaseMint+32])
	copy(p.Mint1[:], data[offsetQuoteMint:offsetQuoteMint+32])
	copy(p.Vault0[:], data[offsetBaseVault:offsetBaseVault+32])
	copy(p.Vault1[:], data[offsetQuoteVault:offsetQuoteVault+32])
	return p, nil
}

const swapIxPoolAccountIndex = 0

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("solfi: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("solfi: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("solfi: BuildMevBotIxAccounts called with non-Solfi pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.Vault0, IsWritable: true},
		{PubKey: p.Vault1, IsWritable: true},
		{PubKey: p.Mint0},
		{PubKey: p.Mint1},
		{PubKey: solana.TokenProgramID},
	}, nil
}
