package txbuilder

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/arbbot/internal/arb"
	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/solfi"
)

type fakeBuilderPools struct {
	cfgs map[chain.Addr]dex.AnyPoolConfig
}

func (f *fakeBuilderPools) Get(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, bool, error) {
	cfg, ok := f.cfgs[addr]
	return cfg, ok, nil
}

type recordingSubmitter struct {
	submitted []*solana.Transaction
}

func (r *recordingSubmitter) Submit(ctx context.Context, tx *solana.Transaction) error {
	r.submitted = append(r.submitted, tx)
	return nil
}

type fakeSigner struct{ signCalls int }

func (f *fakeSigner) SignTx(tx *solana.Transaction) error {
	f.signCalls++
	return nil
}

func newTestBuilder(t *testing.T, pools *fakeBuilderPools, submitter *recordingSubmitter, signer *fakeSigner) *Builder {
	t.Helper()
	bh := NewBlockhashCache(&fakeBlockhashSource{hash: solana.Hash{}}, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bh.Start(ctx)
	require.Eventually(t, func() bool {
		_, err := bh.Get()
		return err == nil
	}, time.Second, time.Millisecond)

	return New(Config{
		MevProgram:       solana.NewWallet().PublicKey(),
		Payer:            solana.NewWallet().PublicKey(),
		WsolMint:         solana.NewWallet().PublicKey(),
		FlashloanAccount: solana.NewWallet().PublicKey(),
		FeeCollectors: FeeCollectors{
			Flashloan:    solana.NewWallet().PublicKey(),
			NonFlashloan: [3]chain.Addr{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()},
		},
		ComputeUnitLimit: 580_000,
		ComputeUnitPrice: 1_000,
		MinimumProfit:    253345,
		Pools:            pools,
		Blockhash:        bh,
		Signer:           signer,
		Submitter:        submitter,
	})
}

func TestBuilder_BuildProducesSignedTransaction(t *testing.T) {
	buyPool := solana.NewWallet().PublicKey()
	sellPool := solana.NewWallet().PublicKey()
	minor := solana.NewWallet().PublicKey()
	desired := solana.NewWallet().PublicKey()

	pools := &fakeBuilderPools{cfgs: map[chain.Addr]dex.AnyPoolConfig{
		buyPool: {
			Base: dex.PoolBase{Address: buyPool, BaseMint: minor, QuoteMint: desired, DexType: dex.Solfi},
			Data: &solfi.Pool{Mint0: minor, Mint1: desired, Vault0: solana.NewWallet().PublicKey(), Vault1: solana.NewWallet().PublicKey()},
		},
		sellPool: {
			Base: dex.PoolBase{Address: sellPool, BaseMint: minor, QuoteMint: desired, DexType: dex.Solfi},
			Data: &solfi.Pool{Mint0: minor, Mint1: desired, Vault0: solana.NewWallet().PublicKey(), Vault1: solana.NewWallet().PublicKey()},
		},
	}}
	submitter := &recordingSubmitter{}
	signer := &fakeSigner{}
	b := newTestBuilder(t, pools, submitter, signer)

	fire := arb.MevBotFire{
		MinorMint: minor,
		BuyPool:   buyPool,
		SellPool:  sellPool,
		Spread:    big.NewRat(10, 1),
		Key:       arb.NewTxKey(minor, buyPool, sellPool),
	}

	err := b.Fire(context.Background(), fire)
	require.NoError(t, err)
	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, 1, signer.signCalls)
}

func TestBuilder_Build_FailsWhenLegPoolMissing(t *testing.T) {
	pools := &fakeBuilderPools{cfgs: map[chain.Addr]dex.AnyPoolConfig{}}
	submitter := &recordingSubmitter{}
	signer := &fakeSigner{}
	b := newTestBuilder(t, pools, submitter, signer)

	fire := arb.MevBotFire{
		MinorMint: solana.NewWallet().PublicKey(),
		BuyPool:   solana.NewWallet().PublicKey(),
		SellPool:  solana.NewWallet().PublicKey(),
		Spread:    big.NewRat(1, 1),
	}

	_, err := b.Build(context.Background(), fire)
	require.Error(t, err)
	assert.Empty(t, submitter.submitted)
}
