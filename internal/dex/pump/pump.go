// Package pump decodes pre-migration pump.fun bonding-curve accounts. Unlike
// pumpamm's vault-based constant product, a bonding curve carries virtual
// and real reserves inline (no separate vault fetch needed for a mid
// price). Field names match the widely-documented pump.fun bonding-curve
// account shape; no pack example gives the exact byte layout (see
// SPEC_FULL.md §12), so offsets are this package's own fixed convention,
// decoded in the same manual byte-offset style as meteoradlmm.
package pump

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

func init() {
	dex.RegisterOwner(dex.Pump, ProgramID)
}

const (
	offsetVirtualTokenReserves = 8
	offsetVirtualSolReserves   = 16
	offsetRealTokenReserves    = 24
	offsetRealSolReserves      = 32
	offsetTokenTotalSupply     = 40
	offsetComplete             = 48
	offsetMint                 = 49
	minAccountLength           = 81
)

// WSOL is the wrapped-SOL mint every bonding curve quotes against.
var WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// Pool is the decoded subset of a pump.fun bonding-curve account.
type Pool struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Mint                 chain.Addr
	Vault                chain.Addr
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.Mint }
func (p *Pool) QuoteMint() chain.Addr  { return WSOL }
func (p *Pool) BaseVault() chain.Addr  { return p.Vault }
func (p *Pool) QuoteVault() chain.Addr { return chain.Addr{} } // the curve itself holds SOL, no separate SPL vault

// MidPrice uses the virtual reserves, matching the bonding-curve invariant
// `virtualSol * virtualToken = k`: price = virtualSolReserves / virtualTokenReserves,
// decimal-normalized (SOL has 9 decimals, pump.fun tokens 6).
func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	if p.Complete {
		return dex.Quote{}, fmt.Errorf("pump: bonding curve has migrated, no longer quotable here")
	}
	price, err := dex.ConstantProductMidPrice(
		new(big.Int).SetUint64(p.VirtualTokenReserves), new(big.Int).SetUint64(p.VirtualSolReserves),
		6, 9)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("pump: %w", err)
	}
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// Decode parses a pump.fun bonding-curve account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("pump: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		VirtualTokenReserves: binary.LittleEndian.Uint64(data[offsetVirtualTokenReserves:]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(data[offsetVirtualSolReserves:]),
		RealTokenReserves:    binary.LittleEndian.Uint64(data[offsetRealTokenReserves:]),
		RealSolReserves:      binary.LittleEndian.Uint64(data[offsetRealSolReserves:]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(data[offsetTokenTotalSupply:]),
		Complete:             data[offsetComplete] != 0,
	}
	copy(p.Mint[:], data[offsetMint:offsetMint+32])
	return p, nil
}

const swapIxPoolAccountIndex = 2

func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("pump: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("pump: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("pump: BuildMevBotIxAccounts called with non-pump pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.Vault, IsWritable: true},
		{PubKey: p.Mint},
		{PubKey: WSOL},
		{PubKey: solana.TokenProgramID},
	}, nil
}
