// Package orcawhirlpool decodes Orca Whirlpool (concentrated-liquidity)
// pool accounts. Discriminator-filtered account fetching and the tick/
// sqrt-price shape are grounded on the SolRoute OrcaWhirlpoolProtocol file
// (see DESIGN.md C2); the Q64.64 sqrt-price-to-decimal-price conversion
// matches spec.md §4.2 exactly: `price = (sqrtPrice / 2^64)^2`.
package orcawhirlpool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is Orca Whirlpool's owner program on mainnet.
var ProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

// Discriminator is the 8-byte anchor account discriminator for Whirlpool
// accounts.
var Discriminator = [8]byte{63, 149, 209, 12, 225, 128, 99, 9}

func init() {
	dex.RegisterOwner(dex.OrcaWhirlpool, ProgramID)
}

// Pool mirrors the fields of an Orca Whirlpool account this pipeline needs.
type Pool struct {
	Discriminator  [8]byte
	WhirlpoolsConf solana.PublicKey
	FeeTier        solana.PublicKey
	FeeRate        uint16
	ProtocolFeeRate uint16
	Liquidity      uint64
	SqrtPriceLo    uint64
	SqrtPriceHi    uint64
	TickCurrent    int32
	TokenMintA     solana.PublicKey
	TokenVaultA    solana.PublicKey
	TokenMintB     solana.PublicKey
	TokenVaultB    solana.PublicKey
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.TokenMintA }
func (p *Pool) QuoteMint() chain.Addr  { return p.TokenMintB }
func (p *Pool) BaseVault() chain.Addr  { return p.TokenVaultA }
func (p *Pool) QuoteVault() chain.Addr { return p.TokenVaultB }

// sqrtPriceQ64 reassembles the 128-bit sqrt price from its two uint64 halves
// (gagliardetto/binary has no native u128; the teacher's own orca/math.go
// already works in math/big, so this package follows suit instead of adding
// a uint128 dependency).
func (p *Pool) sqrtPriceQ64() *big.Int {
	hi := new(big.Int).Lsh(new(big.Int).SetUint64(p.SqrtPriceHi), 64)
	return hi.Or(hi, new(big.Int).SetUint64(p.SqrtPriceLo))
}

// Price computes `(sqrtPrice / 2^64)^2`, decimal-shifted by
// `decimalsTo - decimalsFrom`, per spec.md §4.2.
func (p *Pool) Price(decimalsA, decimalsB int8) *big.Rat {
	q64 := new(big.Int).Lsh(big.NewInt(1), 64)
	sqrt := new(big.Rat).SetFrac(p.sqrtPriceQ64(), q64)
	price := new(big.Rat).Mul(sqrt, sqrt)
	return dex.NormalizeDecimals(price, decimalsB, decimalsA)
}

// MidPrice implements dex.PoolData.MidPrice; companion accounts (tick
// arrays) are not needed for a mid-price estimate, only for exact-quote
// traversal, so fetcher is accepted but unused here. The price is in raw
// token units: mint decimals are not applied, here or by the detector.
func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	price := p.Price(0, 0) // raw units, no decimal shift
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// Decode parses a Whirlpool account, validating the anchor discriminator.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("orcawhirlpool: %w", dex.ErrShortBuffer)
	}
	var disc [8]byte
	copy(disc[:], data[:8])
	if disc != Discriminator {
		return nil, fmt.Errorf("orcawhirlpool: %w", dex.ErrBadDiscriminator)
	}
	p := &Pool{}
	decoder := bin.NewBinDecoder(data)
	if err := decoder.Decode(p); err != nil {
		return nil, fmt.Errorf("orcawhirlpool: decode: %w", err)
	}
	return p, nil
}

// swapIxPoolAccountIndex is the fixed "whirlpool" account index in an Orca
// SwapV2 instruction.
const swapIxPoolAccountIndex = 2

// ExtractPoolFrom validates the instruction's program id and extracts the
// pool address from the fixed account index.
func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("orcawhirlpool: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("orcawhirlpool: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

// BuildMevBotIxAccounts produces the account list the MEV program expects
// for an Orca Whirlpool leg: payer, vaults, mints, token program. The pool
// account itself is not part of the list.
func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("orcawhirlpool: BuildMevBotIxAccounts called with non-Whirlpool pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.TokenVaultA, IsWritable: true},
		{PubKey: p.TokenVaultB, IsWritable: true},
		{PubKey: p.TokenMintA},
		{PubKey: p.TokenMintB},
		{PubKey: solana.TokenProgramID},
	}, nil
}
