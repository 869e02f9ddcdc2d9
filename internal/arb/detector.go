// Package arb implements C6: the pool-update-triggered arbitrage detector.
// Given a state change on a pool already known to the system, it resolves
// every sibling pool sharing the same minor mint, quotes each one, and
// decides whether the spread between the best buy and best sell clears the
// configured floor — publishing a MevBotFire to the transaction builder
// (C7) when it does. See spec.md §4.6.
package arb

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/registry"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// MevBotFire is the opportunity C6 publishes to the transaction builder
// once a profitable two-leg cycle through minor mint is found.
type MevBotFire struct {
	MinorMint chain.Addr
	BuyPool   chain.Addr
	SellPool  chain.Addr
	Spread    *big.Rat
	Key       TxKey
}

// SiblingIndex resolves every pool address currently known to pair minor
// with the desired mint. Satisfied by cache/pools.MintIndex.
type SiblingIndex interface {
	PoolsFor(ctx context.Context, mint chain.Addr) ([]chain.Addr, error)
}

// PoolConfigs resolves a pool address to its decoded AnyPoolConfig.
// Satisfied by cache/pools.PoolCache.
type PoolConfigs interface {
	Get(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, bool, error)
}

// Publisher hands a fired opportunity to the transaction builder (C7).
type Publisher interface {
	Fire(ctx context.Context, fire MevBotFire) error
}

// DefaultBackoff is the dedup backoff window applied when Config.Backoff is
// left zero.
const DefaultBackoff = 500 * time.Millisecond

// Config wires a Detector's collaborators.
type Config struct {
	DesiredMint chain.Addr
	Siblings    SiblingIndex
	Pools       PoolConfigs
	Fetcher     dex.AccountFetcher
	Publisher   Publisher
	SpreadFloor *big.Rat
	Backoff     time.Duration
	Dedup       *Dedup
	Logger      *logrus.Logger
}

// Detector implements C6: given a pool-state change, it computes mid-prices
// across every sibling pool of the same minor mint and decides whether to
// fire an arbitrage, per spec.md §4.6.
type Detector struct {
	desiredMint chain.Addr
	siblings    SiblingIndex
	pools       PoolConfigs
	fetcher     dex.AccountFetcher
	publisher   Publisher
	spreadFloor *big.Rat
	dedup       *Dedup
	logger      *logrus.Logger
}

// New builds a Detector from cfg, defaulting the spread floor and the dedup
// map/backoff when not supplied.
func New(cfg Config) *Detector {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.SpreadFloor == nil {
		cfg.SpreadFloor = big.NewRat(0, 1)
	}
	if cfg.Dedup == nil {
		backoff := cfg.Backoff
		if backoff <= 0 {
			backoff = DefaultBackoff
		}
		cfg.Dedup = NewDedup(backoff)
	}
	return &Detector{
		desiredMint: cfg.DesiredMint,
		siblings:    cfg.Siblings,
		pools:       cfg.Pools,
		fetcher:     cfg.Fetcher,
		publisher:   cfg.Publisher,
		spreadFloor: cfg.SpreadFloor,
		dedup:       cfg.Dedup,
		logger:      cfg.Logger,
	}
}

// HandleAccountCompare implements ingress.CompareSink: the trigger for C6's
// whole algorithm is a state change on a pool already known to the system.
func (d *Detector) HandleAccountCompare(ctx context.Context, dt dex.DexType, old, new chain.AccountState) {
	pd, err := registry.LoadData(dt, new.Data)
	if err != nil {
		d.logger.WithError(err).WithField("pool", new.PubKey.String()).Debug("compare trigger: pool failed to decode")
		return
	}

	minor := minorMint(pd, d.desiredMint)
	switch err := d.Evaluate(ctx, minor); {
	case err == nil:
	case errs.Is(err, errs.KindNoOpportunity), errs.Is(err, errs.KindDedupSkip):
		// spec.md §7: neither is a failure worth a warn log, just a count.
		d.logger.WithField("minor_mint", minor.String()).Debug(err.Error())
	default:
		d.logger.WithError(err).WithField("minor_mint", minor.String()).Warn("arbitrage evaluation failed")
	}
}

// Evaluate runs spec.md §4.6 steps 2-7 for minor: gather sibling pools,
// quote each, pick the buy/sell legs, check the spread floor, dedup, and
// publish. Exported so tests and alternate triggers (e.g. a periodic
// re-scan) can drive it directly without going through an AccountState.
//
// The spread-floor check runs before the dedup check (the reverse of
// spec.md §4.6's step numbering) so a sub-floor candidate never consumes a
// dedup slot that a genuine, later opportunity on the same pool pair would
// then be locked out of for the rest of the backoff window.
func (d *Detector) Evaluate(ctx context.Context, minor chain.Addr) error {
	addrs, err := d.siblings.PoolsFor(ctx, minor)
	if err != nil {
		return err
	}
	if len(addrs) < 2 {
		return errs.ErrNoOpportunity
	}

	quotes := d.quoteAll(ctx, minor, addrs)
	if len(quotes) < 2 {
		return errs.ErrNoOpportunity
	}

	asc := append([]pricedPool(nil), quotes...)
	desc := append([]pricedPool(nil), quotes...)
	sortAscending(asc)
	sortDescending(desc)

	buy, sell, ok := selectLegs(asc, desc)
	if !ok {
		return errs.ErrNoOpportunity
	}

	spread := new(big.Rat).Sub(sell.price, buy.price)
	if spread.Cmp(d.spreadFloor) <= 0 {
		return errs.ErrNoOpportunity
	}

	key := NewTxKey(minor, buy.addr, sell.addr)
	if !d.dedup.Allow(key) {
		return errs.ErrDedupSkip
	}

	if d.publisher == nil {
		return errs.ErrNoOpportunity
	}
	return d.publisher.Fire(ctx, MevBotFire{
		MinorMint: minor,
		BuyPool:   buy.addr,
		SellPool:  sell.addr,
		Spread:    spread,
		Key:       key,
	})
}

func (d *Detector) quoteAll(ctx context.Context, minor chain.Addr, addrs []chain.Addr) []pricedPool {
	quotes := make([]pricedPool, 0, len(addrs))
	for _, addr := range addrs {
		cfg, ok, err := d.pools.Get(ctx, addr)
		if err != nil || !ok || cfg.Data == nil {
			continue
		}
		q, err := cfg.Data.MidPrice(ctx, minor, d.desiredMint, d.fetcher)
		if err != nil {
			d.logger.WithError(err).WithField("pool", addr.String()).Debug("skipping pool with quoting error")
			continue
		}
		quotes = append(quotes, pricedPool{addr: addr, price: q.Price})
	}
	return quotes
}

// minorMint returns whichever side of pd isn't desired — the mint the
// sibling-pool lookup groups pools by.
func minorMint(pd dex.PoolData, desired chain.Addr) chain.Addr {
	if pd.QuoteMint().Equals(desired) {
		return pd.BaseMint()
	}
	return pd.QuoteMint()
}
