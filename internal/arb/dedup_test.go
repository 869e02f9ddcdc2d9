package arb

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

// TestDedup_Scenario3 reproduces spec.md §8 scenario 3 literally: fire at
// t=0, a retry at t=backoff-1ms is suppressed, a retry at t=backoff+1ms
// passes.
func TestDedup_Scenario3(t *testing.T) {
	backoff := 100 * time.Millisecond
	start := time.Unix(0, 0)
	clock := start

	d := NewDedupWithClock(backoff, func() time.Time { return clock })

	key := NewTxKey(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())

	assert.True(t, d.Allow(key), "first fire at t=0 must be allowed")

	clock = start.Add(backoff - time.Millisecond)
	assert.False(t, d.Allow(key), "retry within the backoff window must be suppressed")

	clock = start.Add(backoff + time.Millisecond)
	assert.True(t, d.Allow(key), "retry after the backoff window must pass")
}

func TestDedup_SelfPrunesOldEntries(t *testing.T) {
	backoff := 10 * time.Millisecond
	start := time.Unix(0, 0)
	clock := start
	d := NewDedupWithClock(backoff, func() time.Time { return clock })

	key := NewTxKey(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	assert.True(t, d.Allow(key))

	clock = start.Add(3 * backoff)
	d.Allow(NewTxKey(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()))

	d.mu.Lock()
	_, stillPresent := d.fired[key]
	d.mu.Unlock()
	assert.False(t, stillPresent, "entries older than 2*backoff must be pruned")
}

func TestNewTxKey_OrderIndependent(t *testing.T) {
	minor := solana.NewWallet().PublicKey()
	p1 := solana.NewWallet().PublicKey()
	p2 := solana.NewWallet().PublicKey()

	a := NewTxKey(minor, p1, p2)
	b := NewTxKey(minor, p2, p1)
	assert.Equal(t, a, b, "TxKey must not depend on buy/sell leg order")
}
