package ingress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

func TestDebouncer_CoalescesBurstToLatestState(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	var mu sync.Mutex
	var received []chain.AccountState

	d := NewDebouncer(20, func(ctx context.Context, state chain.AccountState) {
		mu.Lock()
		received = append(received, state)
		mu.Unlock()
	})
	d.Start(context.Background())

	for i := uint64(1); i <= 5; i++ {
		d.Submit(chain.AccountState{PubKey: addr, WriteVersion: i})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, 5, received[0].WriteVersion)
}

func TestDebouncer_DropsStaleWritesWithinWindow(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	var mu sync.Mutex
	var received []chain.AccountState

	d := NewDebouncer(20, func(ctx context.Context, state chain.AccountState) {
		mu.Lock()
		received = append(received, state)
		mu.Unlock()
	})
	d.Start(context.Background())

	d.Submit(chain.AccountState{PubKey: addr, Slot: 10, WriteVersion: 5})
	d.Submit(chain.AccountState{PubKey: addr, Slot: 10, WriteVersion: 2}) // stale, same slot

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, 5, received[0].WriteVersion)
}

func TestDebouncer_DistinctAccountsDispatchIndependently(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	var mu sync.Mutex
	seen := map[chain.Addr]bool{}

	d := NewDebouncer(10, func(ctx context.Context, state chain.AccountState) {
		mu.Lock()
		seen[state.PubKey] = true
		mu.Unlock()
	})
	d.Start(context.Background())

	d.Submit(chain.AccountState{PubKey: a})
	d.Submit(chain.AccountState{PubKey: b})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[a] && seen[b]
	}, time.Second, time.Millisecond)
}
