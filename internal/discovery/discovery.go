// Package discovery implements C5: turning a freshly-seen pool account into
// a recorded PoolRecord, per spec.md §4.5. It is the only place that decides
// whether a pool is worth tracking at all (invariant I1: it must include the
// configured "desired" mint).
package discovery

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/registry"
)

// PoolStore is the narrow collaborator C3's PoolCache satisfies: write-
// through persistence plus a read-back path for the "already recorded"
// fallback spec.md §4.5 describes for persistence failures.
type PoolStore interface {
	Put(ctx context.Context, addr chain.Addr, dt dex.DexType, raw []byte, cfg dex.AnyPoolConfig) error
	Get(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, bool, error)
}

// MintIndexer is the narrow collaborator C3's MintIndex satisfies.
type MintIndexer interface {
	Upsert(ctx context.Context, mint, pool chain.Addr) error
}

// KnownPools is the fast secondary cache spec.md §4.5 calls "marks the pool
// as known" — a plain in-memory set, shared between discovery (which writes
// to it) and the ingress router's PoolKnownChecker (which reads it) so a
// pool is never run through discovery twice.
type KnownPools struct {
	mu   sync.RWMutex
	seen map[chain.Addr]struct{}
}

func NewKnownPools() *KnownPools {
	return &KnownPools{seen: make(map[chain.Addr]struct{})}
}

// IsKnownPool implements ingress.PoolKnownChecker.
func (k *KnownPools) IsKnownPool(addr chain.Addr) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.seen[addr]
	return ok
}

// MarkKnown records addr as a recorded pool.
func (k *KnownPools) MarkKnown(addr chain.Addr) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.seen[addr] = struct{}{}
}

// Discovery implements C5: decode-on-first-sight, the I1 desired-mint
// filter, and idempotent upsert with read-back fallback.
type Discovery struct {
	desiredMint chain.Addr
	store       PoolStore
	mintIndex   MintIndexer
	known       *KnownPools
	logger      *logrus.Logger
}

// Config configures a Discovery.
type Config struct {
	DesiredMint chain.Addr
	Store       PoolStore
	MintIndex   MintIndexer
	Known       *KnownPools
	Logger      *logrus.Logger
}

func New(cfg Config) *Discovery {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Known == nil {
		cfg.Known = NewKnownPools()
	}
	return &Discovery{
		desiredMint: cfg.DesiredMint,
		store:       cfg.Store,
		mintIndex:   cfg.MintIndex,
		known:       cfg.Known,
		logger:      cfg.Logger,
	}
}

// HandlePoolAccount implements ingress.DiscoverySink. It decodes the pool,
// rejects it if neither side is the desired mint (I1), persists it
// idempotently, and marks it known so future updates to this address route
// straight to C6 instead of back through discovery.
func (d *Discovery) HandlePoolAccount(ctx context.Context, dt dex.DexType, state chain.AccountState) {
	pd, err := registry.LoadData(dt, state.Data)
	if err != nil {
		d.logger.WithError(err).WithField("pool", state.PubKey.String()).WithField("dex", dt.String()).
			Debug("discarding pool account that failed to decode")
		return
	}

	if !pd.BaseMint().Equals(d.desiredMint) && !pd.QuoteMint().Equals(d.desiredMint) {
		d.logger.WithField("pool", state.PubKey.String()).Debug("discarding pool without the desired mint")
		return
	}

	cfg := dex.AnyPoolConfig{
		Base: dex.PoolBase{
			Address:   state.PubKey,
			BaseMint:  pd.BaseMint(),
			QuoteMint: pd.QuoteMint(),
			DexType:   dt,
		},
		Data: pd,
	}

	if err := d.store.Put(ctx, state.PubKey, dt, state.Data, cfg); err != nil {
		d.logger.WithError(err).WithField("pool", state.PubKey.String()).Warn("pool persistence failed, attempting read-back")
		if _, ok, rerr := d.store.Get(ctx, state.PubKey); rerr != nil || !ok {
			d.logger.WithError(rerr).WithField("pool", state.PubKey.String()).Error("pool not recorded after persistence failure and read-back")
			return
		}
	}

	d.indexMints(ctx, cfg)
	d.known.MarkKnown(state.PubKey)
}

// minorMint returns whichever side of cfg isn't the configured desired mint
// — the mint C6's sibling-pool lookup actually groups pools by.
func (d *Discovery) minorMint(cfg dex.AnyPoolConfig) chain.Addr {
	if cfg.Base.QuoteMint.Equals(d.desiredMint) {
		return cfg.Base.BaseMint
	}
	return cfg.Base.QuoteMint
}

func (d *Discovery) indexMints(ctx context.Context, cfg dex.AnyPoolConfig) {
	if d.mintIndex == nil {
		return
	}
	pool := cfg.Base.Address
	minor := d.minorMint(cfg)
	if err := d.mintIndex.Upsert(ctx, minor, pool); err != nil {
		d.logger.WithError(err).WithField("pool", pool.String()).Warn("failed to index pool under minor mint")
	}
	if err := d.mintIndex.Upsert(ctx, d.desiredMint, pool); err != nil {
		d.logger.WithError(err).WithField("pool", pool.String()).Warn("failed to index pool under desired mint")
	}
}
