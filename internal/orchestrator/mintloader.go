package orchestrator

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/cache/pools"
	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/txbuilder"
)

// splMintAccountLen is the fixed-size base layout of an SPL Token / Token-2022
// mint account (Token-2022 extensions, if any, are appended after these 82
// bytes and are irrelevant to the fields MintRecord needs).
const splMintAccountLen = 82

const splMintDecimalsOffset = 44

// mintAccountGetter is the narrow RPC surface RPCMintLoader needs.
type mintAccountGetter interface {
	GetAccountInfo(ctx context.Context, addr chain.Addr) (chain.AccountState, error)
}

// RPCMintLoader implements pools.MintLoader by reading the raw mint account
// and picking the decimals byte out of SPL Token's fixed layout; it does not
// resolve a Metaplex metadata PDA (spec.md's MintRecord.human_repr), so
// HumanRepr falls back to the mint's base58 address. A real symbol/name
// lookup would need an extra metadata-program account fetch this bot's
// arbitrage path never otherwise needs — see DESIGN.md.
type RPCMintLoader struct {
	rpc mintAccountGetter
}

func NewRPCMintLoader(rpc mintAccountGetter) *RPCMintLoader {
	return &RPCMintLoader{rpc: rpc}
}

var _ pools.MintLoader = (*RPCMintLoader)(nil)

// LoadMint implements pools.MintLoader.
func (l *RPCMintLoader) LoadMint(ctx context.Context, addr chain.Addr) (pools.MintRecord, error) {
	state, err := l.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		return pools.MintRecord{}, fmt.Errorf("mintloader: fetch %s: %w", addr, err)
	}
	if len(state.Data) < splMintAccountLen {
		return pools.MintRecord{}, fmt.Errorf("mintloader: %s is not a mint account (%d bytes)", addr, len(state.Data))
	}

	tokenProgram := chain.Addr(solana.TokenProgramID)
	if state.Owner.Equals(txbuilder.Token2022ProgramID) {
		tokenProgram = txbuilder.Token2022ProgramID
	}

	return pools.MintRecord{
		Address:      addr,
		HumanRepr:    addr.String(),
		Decimals:     state.Data[splMintDecimalsOffset],
		TokenProgram: tokenProgram,
	}, nil
}
