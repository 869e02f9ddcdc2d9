package ingress

import (
	"context"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
)

// PoolKnownChecker answers whether addr is already a recorded pool, the
// cheap in-memory check spec.md §4.4 uses to decide between "pool update"
// (C6) and "pool discovery" (C5) without touching the backing store or RPC.
type PoolKnownChecker interface {
	IsKnownPool(addr chain.Addr) bool
}

// DiscoverySink is the narrow collaborator C5 discovery implements: an
// account update whose owner matches a known DEX program but that hasn't
// been recorded as a pool yet.
type DiscoverySink interface {
	HandlePoolAccount(ctx context.Context, dt dex.DexType, state chain.AccountState)
}

// CompareSink is the narrow collaborator C6's detector implements for the
// account-update path: an old/new state pair for a pool already on record,
// spec.md's `Trigger::AccountCompare(old, new)`.
type CompareSink interface {
	HandleAccountCompare(ctx context.Context, dt dex.DexType, old, new chain.AccountState)
}

// MintSink receives account updates owned by the SPL token program, the
// mint-metadata refresh path feeds off of.
type MintSink interface {
	HandleMintAccount(ctx context.Context, state chain.AccountState)
}

// PriorState looks up the last cached AccountState for an account, so the
// route processor can build the AccountCompare pair and enforce I5 before
// overwriting it.
type PriorState interface {
	Get(addr chain.Addr) (chain.AccountState, bool)
}

// AccountUpdateRouteProcessor classifies incoming account updates by owner
// program, and — for known DEX programs — by whether the pool is already on
// record, routing each update to exactly one of discovery (C5), the
// detector's compare path (C6), or the mint-metadata path, per spec.md §4.4.
type AccountUpdateRouteProcessor struct {
	known PoolKnownChecker
	prior PriorState
	pools DiscoverySink
	cmp   CompareSink
	mints MintSink

	tokenProgram   chain.Addr
	token2022Owner chain.Addr
}

func NewAccountUpdateRouteProcessor(known PoolKnownChecker, prior PriorState, pools DiscoverySink, cmp CompareSink, mints MintSink, tokenProgram, token2022Owner chain.Addr) *AccountUpdateRouteProcessor {
	return &AccountUpdateRouteProcessor{
		known: known, prior: prior, pools: pools, cmp: cmp, mints: mints,
		tokenProgram: tokenProgram, token2022Owner: token2022Owner,
	}
}

// Handle implements AccountHandler.
func (r *AccountUpdateRouteProcessor) Handle(ctx context.Context, state chain.AccountState) {
	if dt := dex.DexTypeForOwner(state.Owner); dt != dex.Unknown {
		if r.known != nil && r.known.IsKnownPool(state.PubKey) {
			old, _ := r.lookupPrior(state.PubKey)
			if !state.Newer(old) {
				return // stale write under I5, drop
			}
			if r.cmp != nil {
				r.cmp.HandleAccountCompare(ctx, dt, old, state)
			}
			return
		}
		if r.pools != nil {
			r.pools.HandlePoolAccount(ctx, dt, state)
		}
		return
	}
	if state.Owner.Equals(r.tokenProgram) || state.Owner.Equals(r.token2022Owner) {
		if r.mints != nil {
			r.mints.HandleMintAccount(ctx, state)
		}
	}
}

func (r *AccountUpdateRouteProcessor) lookupPrior(addr chain.Addr) (chain.AccountState, bool) {
	if r.prior == nil {
		return chain.AccountState{}, false
	}
	return r.prior.Get(addr)
}

// TransactionSink is the narrow collaborator C6's detector implements: one
// instruction the route processor recognized as a DEX swap, plus the
// transaction it came from, for profitability analysis.
type TransactionSink interface {
	HandleSwapInstruction(ctx context.Context, dt dex.DexType, tx chain.Transaction, ix chain.Instruction)
}

// TransactionRouteProcessor scans a confirmed transaction's top-level
// instructions for ones owned by a known DEX program and forwards each to
// the sink, one call per matching instruction.
type TransactionRouteProcessor struct {
	sink TransactionSink
}

func NewTransactionRouteProcessor(sink TransactionSink) *TransactionRouteProcessor {
	return &TransactionRouteProcessor{sink: sink}
}

// Handle implements TransactionHandler.
func (r *TransactionRouteProcessor) Handle(ctx context.Context, tx chain.Transaction) {
	if r.sink == nil {
		return
	}
	for _, ix := range tx.Message.Instructions {
		dt := dex.DexTypeForOwner(ix.ProgramID)
		if dt == dex.Unknown {
			continue
		}
		r.sink.HandleSwapInstruction(ctx, dt, tx, ix)
	}
}
