package ingress

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// AccountPollSource fetches the current state of a fixed watch-list of
// accounts; the poller calls it once per tick rather than subscribing to a
// push feed, grounded on the teacher's stream/rpc_poller.go "free RPC
// polling alternative" to a websocket subscription.
type AccountPollSource interface {
	GetAccounts(ctx context.Context, addrs []chain.Addr) (map[chain.Addr]chain.AccountState, error)
}

// Poller is the fallback StreamProvider used when no websocket endpoint is
// configured: it re-fetches a fixed watch-list on a ticker
// and only calls onAccount for entries that are strictly newer (I5) than
// the last observation, so it looks like a (much slower) push feed to the
// rest of the pipeline.
type Poller struct {
	source   AccountPollSource
	watch    []chain.Addr
	interval time.Duration
	logger   *logrus.Logger

	last map[chain.Addr]chain.AccountState
	stop chan struct{}
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Source   AccountPollSource
	Watch    []chain.Addr
	Interval time.Duration
	Logger   *logrus.Logger
}

// DefaultPollInterval matches the teacher's RPCPoller's "slower to avoid
// rate limits" default.
const DefaultPollInterval = 10 * time.Second

func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Poller{
		source:   cfg.Source,
		watch:    cfg.Watch,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		last:     make(map[chain.Addr]chain.AccountState),
		stop:     make(chan struct{}),
	}
}

var _ StreamProvider = (*Poller)(nil)

// Start implements StreamProvider. onTx is never called; the poller has no
// way to observe transactions, only account snapshots.
func (p *Poller) Start(ctx context.Context, onAccount AccountHandler, _ TransactionHandler) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.WithField("watch_count", len(p.watch)).Info("starting RPC account poller")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			return nil
		case <-ticker.C:
			if err := p.tick(ctx, onAccount); err != nil {
				p.logger.WithError(err).Warn("poll tick failed")
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context, onAccount AccountHandler) error {
	states, err := p.source.GetAccounts(ctx, p.watch)
	if err != nil {
		return err
	}
	for addr, state := range states {
		if prev, ok := p.last[addr]; ok && !state.Newer(prev) {
			continue
		}
		p.last[addr] = state
		if onAccount != nil {
			onAccount(ctx, state)
		}
	}
	return nil
}

// Stop halts the polling loop.
func (p *Poller) Stop() error {
	close(p.stop)
	return nil
}
