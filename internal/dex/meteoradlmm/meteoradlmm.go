// Package meteoradlmm decodes Meteora DLMM (bin-based, dynamic liquidity
// market maker) pool accounts and builds the MEV-program leg for them.
//
// Layout grounded on the SolRoute MeteoraDlmmPool manual byte-offset decoder
// (see DESIGN.md C2): an 8-byte discriminator, a fixed-size parameters
// block, then binStep/activeId/token mints/vaults at fixed offsets. This
// package keeps only the fields the rest of the pipeline actually consumes
// (mints, vaults, active bin, bin step) rather than the full 904-byte pool
// account, since nothing downstream reads the volatility/reward bookkeeping.
package meteoradlmm

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is Meteora DLMM's owner program on mainnet.
var ProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

func init() {
	dex.RegisterOwner(dex.MeteoraDlmm, ProgramID)
}

const (
	offsetActiveID   = 84
	offsetBinStep    = 88
	offsetTokenX     = 96
	offsetTokenY     = 128
	offsetReserveX   = 160
	offsetReserveY   = 192
	minAccountLength = 224
)

// Pool is the decoded subset of a Meteora DLMM pool account.
type Pool struct {
	ActiveID  int32
	BinStep   uint16
	TokenX    chain.Addr
	TokenY    chain.Addr
	ReserveX  chain.Addr
	ReserveY  chain.Addr
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr  { return p.TokenX }
func (p *Pool) QuoteMint() chain.Addr { return p.TokenY }
func (p *Pool) BaseVault() chain.Addr { return p.ReserveX }
func (p *Pool) QuoteVault() chain.Addr { return p.ReserveY }

// BinPrice computes the price of bin `id` in a fixed scale: (1 +
// binStep/10_000)^id, per spec.md §4.2.
func BinPrice(binStep uint16, id int32) *big.Rat {
	base := new(big.Rat).SetFrac(big.NewInt(10_000+int64(binStep)), big.NewInt(10_000))
	result := new(big.Rat).SetInt64(1)
	neg := id < 0
	n := int(id)
	if neg {
		n = -n
	}
	for i := 0; i < n; i++ {
		result.Mul(result, base)
	}
	if neg {
		result.Inv(result)
	}
	return result
}

// MidPrice implements dex.PoolData.MidPrice using the pool's active bin
// price; it does not traverse bin arrays (that is reserved for quote
// estimation under a given input size, see BinArrayTraversalCap), so the
// AccountFetcher argument is unused here and accepted only to satisfy the
// shared interface.
func (p *Pool) MidPrice(_ context.Context, from, to chain.Addr, _ dex.AccountFetcher) (dex.Quote, error) {
	price := BinPrice(p.BinStep, p.ActiveID)
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	return dex.Quote{Price: price}, nil
}

// BinArrayTraversalCap is the default maximum number of bin arrays walked in
// either direction while estimating a swap, per spec.md §9 open question (c):
// 3 for small swaps, 5 for large. The values are fixed; no config option
// overrides them.
func BinArrayTraversalCap(largeSwap bool) int {
	if largeSwap {
		return 5
	}
	return 3
}

// BinArrayIndex returns the bin-array index containing bin id (64 bins per
// array, matching Meteora's on-chain layout).
func BinArrayIndex(id int32) int64 {
	const binsPerArray = 64
	if id >= 0 {
		return int64(id / binsPerArray)
	}
	return -((int64(-id) + binsPerArray - 1) / binsPerArray)
}

// BinArrayPDA derives the bin array address for (pool, index) using seed
// ("bin_array", pool, index_le_i64), per spec.md §4.2.
func BinArrayPDA(pool chain.Addr, index int64) (chain.Addr, uint8, error) {
	var idxLE [8]byte
	binary.LittleEndian.PutUint64(idxLE[:], uint64(index))
	return solana.FindProgramAddress(
		[][]byte{[]byte("bin_array"), pool[:], idxLE[:]},
		ProgramID,
	)
}

// Decode parses the fixed-layout subset of a Meteora DLMM pool account.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) < minAccountLength {
		return nil, fmt.Errorf("meteoradlmm: %w: got %d bytes, need at least %d", dex.ErrShortBuffer, len(data), minAccountLength)
	}
	p := &Pool{
		ActiveID: int32(binary.LittleEndian.Uint32(data[offsetActiveID : offsetActiveID+4])),
		BinStep:  binary.LittleEndian.Uint16(data[offsetBinStep : offsetBinStep+2]),
	}
	copy(p.TokenX[:], data[offsetTokenX:offsetTokenX+32])
	copy(p.TokenY[:], data[offsetTokenY:offsetTokenY+32])
	copy(p.ReserveX[:], data[offsetReserveX:offsetReserveX+32])
	copy(p.ReserveY[:], data[offsetReserveY:offsetReserveY+32])
	return p, nil
}

// swapIxPoolAccountIndex is the fixed index of the pool (lb_pair) account in
// a Meteora DLMM swap instruction's account list.
const swapIxPoolAccountIndex = 0

// ExtractPoolFrom validates the instruction's program id and extracts the
// pool address from the fixed account index.
func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("meteoradlmm: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("meteoradlmm: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

// BuildMevBotIxAccounts produces the account list the MEV program expects
// for a Meteora DLMM leg: payer, token vaults, token mints, and token
// program, in that fixed order. Neither the pool (lb_pair) account nor the
// oracle is part of the list.
func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("meteoradlmm: BuildMevBotIxAccounts called with non-Meteora pool data")
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: p.ReserveX, IsWritable: true},
		{PubKey: p.ReserveY, IsWritable: true},
		{PubKey: p.TokenX},
		{PubKey: p.TokenY},
		{PubKey: solana.TokenProgramID},
	}, nil
}
