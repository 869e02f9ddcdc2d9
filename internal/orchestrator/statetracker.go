package orchestrator

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/ingress"
)

// stateTracker is the in-memory "last observed AccountState per address"
// cell the routing processor needs to build an AccountCompare(old, new)
// pair and enforce I5 before a known pool's update reaches the detector
// (spec.md §4.4). It is intentionally separate from the PoolCache, which
// stores the decoded pool config, not the raw AccountState the comparison
// needs — grounded on discovery.KnownPools's same sync.RWMutex-over-map
// shape, one level up: a fast in-memory index rather than a backing store.
type stateTracker struct {
	mu    sync.RWMutex
	prior map[chain.Addr]chain.AccountState
}

func newStateTracker() *stateTracker {
	return &stateTracker{prior: make(map[chain.Addr]chain.AccountState)}
}

// Get implements ingress.PriorState.
func (t *stateTracker) Get(addr chain.Addr) (chain.AccountState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.prior[addr]
	return s, ok
}

// Put records state as the latest observation for its account.
func (t *stateTracker) Put(state chain.AccountState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prior[state.PubKey] = state
}

var (
	_ ingress.PriorState    = (*stateTracker)(nil)
	_ ingress.DiscoverySink = trackingDiscoverySink{}
	_ ingress.CompareSink   = trackingCompareSink{}
)

// trackingDiscoverySink records every newly-discovered pool's state in the
// tracker before handing it to the real discovery sink, so the very next
// update for that address has a prior state to compare against.
type trackingDiscoverySink struct {
	tracker *stateTracker
	next    ingress.DiscoverySink
}

func (s trackingDiscoverySink) HandlePoolAccount(ctx context.Context, dt dex.DexType, state chain.AccountState) {
	s.tracker.Put(state)
	if s.next != nil {
		s.next.HandlePoolAccount(ctx, dt, state)
	}
}

// trackingCompareSink records the new state after handing the (old, new)
// pair to the detector, so the next update compares against this one.
type trackingCompareSink struct {
	tracker *stateTracker
	next    ingress.CompareSink
}

func (s trackingCompareSink) HandleAccountCompare(ctx context.Context, dt dex.DexType, old, new chain.AccountState) {
	if s.next != nil {
		s.next.HandleAccountCompare(ctx, dt, old, new)
	}
	s.tracker.Put(new)
}

// mintInvalidator is the narrow shape of pools.MintCache this sink needs.
type mintInvalidator interface {
	Invalidate(ctx context.Context, addr chain.Addr) error
}

// mintAccountSink implements ingress.MintSink by invalidating the cached
// mint record on every push update for that mint's account, so the next
// MintCache.Get call re-loads fresh metadata instead of serving a stale
// entry for up to DefaultMintTTL.
type mintAccountSink struct {
	cache  mintInvalidator
	logger *logrus.Logger
}

var _ ingress.MintSink = mintAccountSink{}

func (s mintAccountSink) HandleMintAccount(ctx context.Context, state chain.AccountState) {
	if err := s.cache.Invalidate(ctx, state.PubKey); err != nil {
		s.logger.WithError(err).WithField("mint", state.PubKey.String()).Debug("mint invalidate failed")
	}
}
