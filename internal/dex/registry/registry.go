// Package registry is the only place that imports every per-family decoder
// package; internal/dex (the shared contract) and the family packages
// themselves never import each other, so this is where the closed
// DexType-to-decoder dispatch table actually gets built (spec.md §4.2:
// "Registration is compile-time static").
package registry

import (
	"fmt"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/meteoradammv2"
	"github.com/aman-zulfiqar/arbbot/internal/dex/meteoradlmm"
	"github.com/aman-zulfiqar/arbbot/internal/dex/orcawhirlpool"
	"github.com/aman-zulfiqar/arbbot/internal/dex/pump"
	"github.com/aman-zulfiqar/arbbot/internal/dex/pumpamm"
	"github.com/aman-zulfiqar/arbbot/internal/dex/raydiumclmm"
	"github.com/aman-zulfiqar/arbbot/internal/dex/raydiumcp"
	"github.com/aman-zulfiqar/arbbot/internal/dex/raydiumv4"
	"github.com/aman-zulfiqar/arbbot/internal/dex/solfi"
	"github.com/aman-zulfiqar/arbbot/internal/dex/vertigo"
)

type entry struct {
	loadData              func([]byte) (dex.PoolData, error)
	extractPoolFrom       func(chain.Instruction) (chain.Addr, error)
	buildMevBotIxAccounts func(chain.Addr, dex.PoolData) ([]chain.AccountMeta, error)
}

var table = map[dex.DexType]entry{
	dex.MeteoraDlmm: {
		loadData:              meteoradlmm.Decode,
		extractPoolFrom:       meteoradlmm.ExtractPoolFrom,
		buildMevBotIxAccounts: meteoradlmm.BuildMevBotIxAccounts,
	},
	dex.MeteoraDammV2: {
		loadData:              meteoradammv2.Decode,
		extractPoolFrom:       meteoradammv2.ExtractPoolFrom,
		buildMevBotIxAccounts: meteoradammv2.BuildMevBotIxAccounts,
	},
	dex.PumpAmm: {
		loadData:              pumpamm.Decode,
		extractPoolFrom:       pumpamm.ExtractPoolFrom,
		buildMevBotIxAccounts: pumpamm.BuildMevBotIxAccounts,
	},
	dex.RaydiumV4: {
		loadData:              raydiumv4.Decode,
		extractPoolFrom:       raydiumv4.ExtractPoolFrom,
		buildMevBotIxAccounts: raydiumv4.BuildMevBotIxAccounts,
	},
	dex.RaydiumCp: {
		loadData:              raydiumcp.Decode,
		extractPoolFrom:       raydiumcp.ExtractPoolFrom,
		buildMevBotIxAccounts: raydiumcp.BuildMevBotIxAccounts,
	},
	dex.RaydiumClmm: {
		loadData:              raydiumclmm.Decode,
		extractPoolFrom:       raydiumclmm.ExtractPoolFrom,
		buildMevBotIxAccounts: raydiumclmm.BuildMevBotIxAccounts,
	},
	dex.OrcaWhirlpool: {
		loadData:              orcawhirlpool.Decode,
		extractPoolFrom:       orcawhirlpool.ExtractPoolFrom,
		buildMevBotIxAccounts: orcawhirlpool.BuildMevBotIxAccounts,
	},
	dex.Solfi: {
		loadData:              solfi.Decode,
		extractPoolFrom:       solfi.ExtractPoolFrom,
		buildMevBotIxAccounts: solfi.BuildMevBotIxAccounts,
	},
	dex.Vertigo: {
		loadData:              vertigo.Decode,
		extractPoolFrom:       vertigo.ExtractPoolFrom,
		buildMevBotIxAccounts: vertigo.BuildMevBotIxAccounts,
	},
	dex.Pump: {
		loadData:              pump.Decode,
		extractPoolFrom:       pump.ExtractPoolFrom,
		buildMevBotIxAccounts: pump.BuildMevBotIxAccounts,
	},
}

// LoadData decodes raw account bytes for dt into a typed PoolData.
func LoadData(dt dex.DexType, data []byte) (dex.PoolData, error) {
	e, ok := table[dt]
	if !ok {
		return nil, fmt.Errorf("registry: no decoder registered for %s", dt)
	}
	return e.loadData(data)
}

// ExtractPoolFrom validates ix against dt's owner program and extracts the
// pool address, dispatching on the DexType the caller already resolved from
// the instruction's program id via dex.DexTypeForOwner.
func ExtractPoolFrom(dt dex.DexType, ix chain.Instruction) (chain.Addr, error) {
	e, ok := table[dt]
	if !ok {
		return chain.Addr{}, fmt.Errorf("registry: no decoder registered for %s", dt)
	}
	return e.extractPoolFrom(ix)
}

// ExtractPool resolves the DexType from the instruction's program id, then
// extracts the pool address — the single entry point callers without an
// already-known DexType should use.
func ExtractPool(ix chain.Instruction) (dex.DexType, chain.Addr, error) {
	dt := dex.DexTypeForOwner(ix.ProgramID)
	if dt == dex.Unknown {
		return dex.Unknown, chain.Addr{}, fmt.Errorf("registry: unknown owner program %s", ix.ProgramID)
	}
	addr, err := ExtractPoolFrom(dt, ix)
	return dt, addr, err
}

// BuildMevBotIxAccounts dispatches to the family-specific account-list
// builder for an already-decoded pool.
func BuildMevBotIxAccounts(dt dex.DexType, payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	e, ok := table[dt]
	if !ok {
		return nil, fmt.Errorf("registry: no decoder registered for %s", dt)
	}
	return e.buildMevBotIxAccounts(payer, pool)
}

// Supported reports whether dt has a registered decoder.
func Supported(dt dex.DexType) bool {
	_, ok := table[dt]
	return ok
}
