// Package dex defines the closed set of AMM families the bot understands and
// the shared contract every per-family decoder implements. Concrete decoders
// live in subpackages (internal/dex/meteoradlmm, internal/dex/raydiumcp, …)
// so this package never imports them; internal/dex/registry is what wires
// DexType to a concrete decoder, keeping the dependency graph acyclic.
package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// DexType is the closed set of AMM families the registry can decode.
// Adding a family means touching this enum, OwnerPrograms, and the registry
// dispatch table — never an open-set plugin model, per spec.md §9.
type DexType int

const (
	Unknown DexType = iota
	MeteoraDlmm
	MeteoraDammV2
	PumpAmm
	RaydiumV4
	RaydiumCp
	RaydiumClmm
	OrcaWhirlpool
	Solfi
	Vertigo
	Pump
)

func (d DexType) String() string {
	switch d {
	case MeteoraDlmm:
		return "MeteoraDlmm"
	case MeteoraDammV2:
		return "MeteoraDammV2"
	case PumpAmm:
		return "PumpAmm"
	case RaydiumV4:
		return "RaydiumV4"
	case RaydiumCp:
		return "RaydiumCp"
	case RaydiumClmm:
		return "RaydiumClmm"
	case OrcaWhirlpool:
		return "OrcaWhirlpool"
	case Solfi:
		return "Solfi"
	case Vertigo:
		return "Vertigo"
	case Pump:
		return "Pump"
	default:
		return "Unknown"
	}
}

// OwnerPrograms is the constant map from owner program address to DexType.
// It is populated by each subpackage's init() via Register, so registration
// stays compile-time static while the mapping itself lives alongside the
// decoders that know their own program id.
var ownerPrograms = map[chain.Addr]DexType{}

// dexOwners is the inverse of ownerPrograms, DexType -> program id, filled
// in lockstep by RegisterOwner.
var dexOwners = map[DexType]chain.Addr{}

// RegisterOwner records the 1:1 mapping between an owner program address and
// a DexType. Called once per family from that family's package init().
func RegisterOwner(dt DexType, owner chain.Addr) {
	ownerPrograms[owner] = dt
	dexOwners[dt] = owner
}

// DexTypeForOwner looks up the DexType for a known owner program, or Unknown.
func DexTypeForOwner(owner chain.Addr) DexType {
	if dt, ok := ownerPrograms[owner]; ok {
		return dt
	}
	return Unknown
}

// OwnerProgram returns the owner program address registered for dt.
func OwnerProgram(dt DexType) (chain.Addr, bool) {
	a, ok := dexOwners[dt]
	return a, ok
}

// AccountFetcher is the narrow read interface a PoolData implementation uses
// to pull companion accounts (e.g. Meteora DLMM bin arrays) while computing
// a mid price. Satisfied by internal/cache's persistent pool cache.
type AccountFetcher interface {
	GetAccount(ctx context.Context, addr chain.Addr) (chain.AccountState, error)
}

// Quote is a unit-swap mid-quote expressed as an exact rational, avoiding the
// precision loss a float would introduce across the wide decimal ranges SPL
// mints use (6 vs 9 decimals is the common case, but not the only one).
type Quote struct {
	Price *big.Rat
}

// PoolData is the shared capability set every decoded pool, regardless of
// family, exposes to the rest of the pipeline (spec.md §3 "PoolData
// (polymorphic)").
type PoolData interface {
	BaseMint() chain.Addr
	QuoteMint() chain.Addr
	BaseVault() chain.Addr
	QuoteVault() chain.Addr
	MidPrice(ctx context.Context, from, to chain.Addr, fetcher AccountFetcher) (Quote, error)
}

// PoolBase is the common envelope every AnyPoolConfig variant carries,
// generic over the concrete decoded struct D (spec.md: `PoolBase<D>`).
type PoolBase struct {
	Address   chain.Addr
	BaseMint  chain.Addr
	QuoteMint chain.Addr
	DexType   DexType
}

// AnyPoolConfig is the tagged union over all pool families. DexType is the
// tag; Data holds the concrete decoded struct behind the PoolData interface,
// or nil when DexType is Unknown.
type AnyPoolConfig struct {
	Base PoolBase
	Data PoolData
}

// Decoder is implemented once per DexType subpackage.
type Decoder interface {
	// LoadData decodes raw account bytes into a typed PoolData.
	LoadData(data []byte) (PoolData, error)
	// ExtractPoolFrom validates ix.ProgramID against the registered owner
	// program and extracts the pool address from a fixed account index.
	ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error)
	// BuildMevBotIxAccounts produces the exact account list the MEV program
	// expects for a leg on this family, in fixed family-specific order.
	BuildMevBotIxAccounts(payer chain.Addr, pool PoolData) ([]chain.AccountMeta, error)
}

// ErrShortBuffer / ErrBadDiscriminator are re-exported for decoder packages
// so every family reports the same classified error kind.
var (
	ErrShortBuffer      = errs.ErrShortBuffer
	ErrBadDiscriminator = errs.ErrBadDiscriminator
)

// NormalizeDecimals scales a raw reserve-ratio price by 10^(decimalsFrom -
// decimalsTo), matching spec.md §4.2's "mid = reserve_quote/reserve_base with
// decimal normalization".
func NormalizeDecimals(price *big.Rat, decimalsFrom, decimalsTo int8) *big.Rat {
	shift := int(decimalsFrom) - int(decimalsTo)
	if shift == 0 {
		return price
	}
	scale := new(big.Rat).SetFrac(big.NewInt(1), big.NewInt(1))
	ten := big.NewInt(10)
	pow := new(big.Int).Exp(ten, big.NewInt(int64(abs(shift))), nil)
	if shift > 0 {
		scale.SetFrac(pow, big.NewInt(1))
	} else {
		scale.SetFrac(big.NewInt(1), pow)
	}
	return new(big.Rat).Mul(price, scale)
}

// ConstantProductMidPrice computes reserve_quote/reserve_base, decimal
// normalized, the same x*y=k formula the teacher's orca/math.go uses for
// legacy pools (CalculateLegacySwapOutput), generalized here from a swap
// output calculation to a standalone mid-price.
func ConstantProductMidPrice(reserveBase, reserveQuote *big.Int, decimalsBase, decimalsQuote int8) (*big.Rat, error) {
	if reserveBase.Sign() == 0 {
		return nil, errs.New(errs.KindDecode, "dex.ConstantProductMidPrice", errZeroBaseReserve)
	}
	price := new(big.Rat).SetFrac(reserveQuote, reserveBase)
	return NormalizeDecimals(price, decimalsQuote, decimalsBase), nil
}

var errZeroBaseReserve = fmt.Errorf("zero base reserve")

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
