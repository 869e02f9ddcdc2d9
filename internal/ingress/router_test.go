package ingress

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/solfi"
)

type fakeKnownChecker map[chain.Addr]bool

func (f fakeKnownChecker) IsKnownPool(addr chain.Addr) bool { return f[addr] }

type fakePriorState map[chain.Addr]chain.AccountState

func (f fakePriorState) Get(addr chain.Addr) (chain.AccountState, bool) {
	s, ok := f[addr]
	return s, ok
}

type recordingDiscoverySink struct {
	calls int
}

func (r *recordingDiscoverySink) HandlePoolAccount(ctx context.Context, dt dex.DexType, state chain.AccountState) {
	r.calls++
}

type recordingCompareSink struct {
	calls int
	old   chain.AccountState
	new   chain.AccountState
}

func (r *recordingCompareSink) HandleAccountCompare(ctx context.Context, dt dex.DexType, old, new chain.AccountState) {
	r.calls++
	r.old = old
	r.new = new
}

type recordingMintSink struct {
	calls int
}

func (r *recordingMintSink) HandleMintAccount(ctx context.Context, state chain.AccountState) {
	r.calls++
}

func TestAccountUpdateRouteProcessor_NewPoolGoesToDiscovery(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	discovery := &recordingDiscoverySink{}
	cmp := &recordingCompareSink{}
	r := NewAccountUpdateRouteProcessor(fakeKnownChecker{}, fakePriorState{}, discovery, cmp, nil, solana.TokenProgramID, chain.Addr{})

	r.Handle(context.Background(), chain.AccountState{PubKey: pool, Owner: solfi.ProgramID})

	assert.Equal(t, 1, discovery.calls)
	assert.Equal(t, 0, cmp.calls)
}

func TestAccountUpdateRouteProcessor_KnownPoolGoesToCompare(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	prior := chain.AccountState{PubKey: pool, Slot: 1, WriteVersion: 1}
	known := fakeKnownChecker{pool: true}
	priorState := fakePriorState{pool: prior}
	discovery := &recordingDiscoverySink{}
	cmp := &recordingCompareSink{}
	r := NewAccountUpdateRouteProcessor(known, priorState, discovery, cmp, nil, solana.TokenProgramID, chain.Addr{})

	next := chain.AccountState{PubKey: pool, Owner: solfi.ProgramID, Slot: 2, WriteVersion: 1}
	r.Handle(context.Background(), next)

	require.Equal(t, 1, cmp.calls)
	assert.Equal(t, 0, discovery.calls)
	assert.Equal(t, prior, cmp.old)
	assert.Equal(t, next, cmp.new)
}

func TestAccountUpdateRouteProcessor_StaleKnownPoolUpdateIsDropped(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	prior := chain.AccountState{PubKey: pool, Slot: 5, WriteVersion: 5}
	known := fakeKnownChecker{pool: true}
	priorState := fakePriorState{pool: prior}
	cmp := &recordingCompareSink{}
	r := NewAccountUpdateRouteProcessor(known, priorState, nil, cmp, nil, solana.TokenProgramID, chain.Addr{})

	stale := chain.AccountState{PubKey: pool, Owner: solfi.ProgramID, Slot: 5, WriteVersion: 1}
	r.Handle(context.Background(), stale)

	assert.Equal(t, 0, cmp.calls)
}

func TestAccountUpdateRouteProcessor_TokenProgramGoesToMintSink(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	mints := &recordingMintSink{}
	r := NewAccountUpdateRouteProcessor(fakeKnownChecker{}, fakePriorState{}, nil, nil, mints, solana.TokenProgramID, chain.Addr{})

	r.Handle(context.Background(), chain.AccountState{PubKey: mint, Owner: solana.TokenProgramID})

	assert.Equal(t, 1, mints.calls)
}

func TestTransactionRouteProcessor_ExtractsSwapInstructions(t *testing.T) {
	var seenDex dex.DexType
	var calls int
	sink := recordingTxSink(func(ctx context.Context, dt dex.DexType, tx chain.Transaction, ix chain.Instruction) {
		calls++
		seenDex = dt
	})
	r := NewTransactionRouteProcessor(sink)

	tx := chain.Transaction{Message: chain.Message{Instructions: []chain.Instruction{
		{ProgramID: solfi.ProgramID},
		{ProgramID: solana.SystemProgramID},
	}}}
	r.Handle(context.Background(), tx)

	assert.Equal(t, 1, calls)
	assert.Equal(t, dex.Solfi, seenDex)
}

type recordingTxSink func(ctx context.Context, dt dex.DexType, tx chain.Transaction, ix chain.Instruction)

func (f recordingTxSink) HandleSwapInstruction(ctx context.Context, dt dex.DexType, tx chain.Transaction, ix chain.Instruction) {
	f(ctx, dt, tx, ix)
}
