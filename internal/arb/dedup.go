package arb

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// TxKey is the dedup identity spec.md §4.6 step 6 describes as
// hash(minor_mint, sorted_pool_addrs). Sorting the pool addresses before
// hashing means the key is the same regardless of which leg is buy vs sell.
type TxKey string

// NewTxKey computes the TxKey for an opportunity on minor paired against the
// given set of pool addresses.
func NewTxKey(minor chain.Addr, pools ...chain.Addr) TxKey {
	sorted := append([]chain.Addr(nil), pools...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})
	h := sha256.New()
	h.Write(minor[:])
	for _, p := range sorted {
		h.Write(p[:])
	}
	return TxKey(hex.EncodeToString(h.Sum(nil)))
}

// Dedup is the fire-suppression map of spec.md §4.8/P6: a second attempt for
// the same TxKey within backoff of the last one is dropped, and entries
// older than 2*backoff self-prune so the map never grows unbounded.
type Dedup struct {
	mu      sync.Mutex
	backoff time.Duration
	fired   map[TxKey]time.Time
	now     func() time.Time
}

// NewDedup builds a Dedup with the given backoff window.
func NewDedup(backoff time.Duration) *Dedup {
	return NewDedupWithClock(backoff, time.Now)
}

// NewDedupWithClock is NewDedup with an injectable clock, for deterministic
// tests of scenario 3's literal t=0/backoff-1ms/backoff+1ms timeline.
func NewDedupWithClock(backoff time.Duration, now func() time.Time) *Dedup {
	return &Dedup{
		backoff: backoff,
		fired:   make(map[TxKey]time.Time),
		now:     now,
	}
}

// Allow reports whether key may fire now, and if so records the firing.
// A dropped attempt does not reset the backoff clock for key: only an
// allowed call updates the recorded timestamp.
func (d *Dedup) Allow(key TxKey) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)

	if last, ok := d.fired[key]; ok && now.Sub(last) < d.backoff {
		return false
	}
	d.fired[key] = now
	return true
}

func (d *Dedup) prune(now time.Time) {
	cutoff := 2 * d.backoff
	for k, t := range d.fired {
		if now.Sub(t) > cutoff {
			delete(d.fired, k)
		}
	}
}
