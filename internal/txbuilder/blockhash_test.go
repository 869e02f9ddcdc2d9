package txbuilder

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlockhashSource struct {
	calls atomic.Int32
	hash  solana.Hash
	err   error
}

func (f *fakeBlockhashSource) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	f.calls.Add(1)
	if f.err != nil {
		return solana.Hash{}, f.err
	}
	return f.hash, nil
}

func TestBlockhashCache_GetFailsBeforeFirstRefresh(t *testing.T) {
	src := &fakeBlockhashSource{err: errors.New("rpc unavailable")}
	c := NewBlockhashCache(src, time.Hour, nil)
	_, err := c.Get()
	require.Error(t, err)
}

func TestBlockhashCache_StartPopulatesBeforeReturningControl(t *testing.T) {
	var want solana.Hash
	copy(want[:], []byte("01234567890123456789012345678901"))
	src := &fakeBlockhashSource{hash: want}
	c := NewBlockhashCache(src, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := c.Get()
		return err == nil && got == want
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestBlockhashCache_RefreshesOnTicker(t *testing.T) {
	src := &fakeBlockhashSource{hash: solana.Hash{}}
	c := NewBlockhashCache(src, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	require.Eventually(t, func() bool {
		return src.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "ticker must keep refreshing")
}

func TestWalletBlockhashSource_UsesConfiguredCommitment(t *testing.T) {
	var gotCommitment string
	adapter := WalletBlockhashSource{
		Wallet:     fakeWalletBlockhash{onCall: func(c string) { gotCommitment = c }},
		Commitment: "processed",
	}
	_, err := adapter.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "processed", gotCommitment)
}

type fakeWalletBlockhash struct {
	onCall func(commitment string)
}

func (f fakeWalletBlockhash) GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error) {
	if len(commitment) > 0 {
		f.onCall(commitment[0])
	}
	return solana.Hash{}, nil
}
