// Package raydiumclmm decodes Raydium's concentrated-liquidity pool
// accounts. Field order grounded on the SolRoute CLMMPool struct (see
// DESIGN.md C2); the u128 fields (Liquidity, SqrtPriceX64, fee growth
// accumulators) are represented as two little-endian uint64 halves decoded
// with github.com/gagliardetto/binary and reassembled with math/big rather
// than adding lukechampine.com/uint128 — the teacher's own orca/math.go
// already does its fixed-point arithmetic in math/big, so this keeps the
// number-crunching the teacher's way rather than importing a new library
// for it (see DESIGN.md).
package raydiumclmm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is Raydium CLMM's owner program on mainnet.
var ProgramID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")

func init() {
	dex.RegisterOwner(dex.RaydiumClmm, ProgramID)
}

// u128 is a little-endian (lo, hi) pair decoded by gagliardetto/binary field
// by field, then reassembled with math/big when arithmetic is needed.
type u128 struct {
	Lo uint64
	Hi uint64
}

func (v u128) BigInt() *big.Int {
	hi := new(big.Int).Lsh(new(big.Int).SetUint64(v.Hi), 64)
	return hi.Or(hi, new(big.Int).SetUint64(v.Lo))
}

// Pool mirrors the subset of Raydium CLMM's on-chain pool state this
// pipeline consumes.
type Pool struct {
	Bump           uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      u128
	SqrtPriceX64   u128
	TickCurrent    int32
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.TokenMint0 }
func (p *Pool) QuoteMint() chain.Addr  { return p.TokenMint1 }
func (p *Pool) BaseVault() chain.Addr  { return p.TokenVault0 }
func (p *Pool) QuoteVault() chain.Addr { return p.TokenVault1 }

// Price computes `(sqrtPriceX64 / 2^64)^2`, decimal-shifted, per spec.md §4.2.
func (p *Pool) Price() *big.Rat {
	q64 := new(big.Int).Lsh(big.NewInt(1), 64)
	sqrt := new(big.Rat).SetFrac(p.SqrtPriceX64.BigInt(), q64)
	price := new(big.Rat).Mul(sqrt, sqrt)
	return dex.NormalizeDecimals(price, int8(p.MintDecimals1), int8(p.MintDecimals0))
}

func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	price := p.Price()
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// Decode parses a Raydium CLMM pool account, skipping the anchor
// discriminator.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) <= 8 {
		return nil, fmt.Errorf("raydiumclmm: %w: got %d bytes", dex.ErrShortBuffer, len(data))
	}
	p := &Pool{}
	decoder := bin.NewBinDecoder(data[8:])
	if err := decoder.Decode(p); err != nil {
		return nil, fmt.Errorf("raydiumclmm: decode: %w", err)
	}
	return p, nil
}

// swapIxPoolAccountIndex is the fixed "pool_state" account index in a
// Raydium CLMM swap instruction.
const swapIxPoolAccountIndex = 2

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("raydiumclmm: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("raydiumclmm: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("raydiumclmm: BuildMevBotIxAccounts called with non-Raydium-CLMM pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.AmmConfig},
		{PubKey: p.TokenVault0, IsWritable: true},
		{PubKey: p.TokenVault1, IsWritable: true},
		{PubKey: p.TokenMint0},
		{PubKey: p.TokenMint1},
		{PubKey: p.ObservationKey, IsWritable: true},
		{PubKey: solana.TokenProgramID},
	}, nil
}
