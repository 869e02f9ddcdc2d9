package txbuilder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

var errBlockhashNotReady = errors.New("blockhash cache has not completed its first refresh")

// BlockhashSource is the narrow RPC surface the refresher needs; satisfied
// by WalletBlockhashSource (wrapping wallet.Wallet) or any other blockhash
// provider without txbuilder importing the wallet package directly.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// walletBlockhash is the narrow shape of wallet.Wallet's own blockhash
// method, whose variadic commitment parameter keeps *wallet.Wallet from
// satisfying BlockhashSource directly.
type walletBlockhash interface {
	GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error)
}

// WalletBlockhashSource adapts wallet.Wallet (or anything with the same
// variadic-commitment signature) to BlockhashSource, fixing the commitment
// level once at construction.
type WalletBlockhashSource struct {
	Wallet     walletBlockhash
	Commitment string
}

func (w WalletBlockhashSource) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if w.Commitment == "" {
		return w.Wallet.GetLatestBlockhash(ctx)
	}
	return w.Wallet.GetLatestBlockhash(ctx, w.Commitment)
}

// DefaultBlockhashRefresh is the ≈400ms cadence spec.md §4.7 specifies.
const DefaultBlockhashRefresh = 400 * time.Millisecond

// BlockhashCache is the lock-protected cell spec.md §5 describes: a
// dedicated background task refreshes it on a ticker, and Build reads it
// without ever calling the RPC synchronously, grounded on the same
// ticker-loop shape as ingress.Poller.
type BlockhashCache struct {
	source   BlockhashSource
	interval time.Duration
	logger   *logrus.Logger

	mu   sync.RWMutex
	hash solana.Hash
	set  bool

	stop chan struct{}
}

// NewBlockhashCache builds a cache that refreshes from source every
// interval (DefaultBlockhashRefresh when left zero).
func NewBlockhashCache(source BlockhashSource, interval time.Duration, logger *logrus.Logger) *BlockhashCache {
	if interval <= 0 {
		interval = DefaultBlockhashRefresh
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &BlockhashCache{
		source:   source,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start runs the refresh loop until ctx is canceled or Stop is called. It
// performs one fetch before entering the ticker loop, then continues
// refreshing on the ticker; it does not return until it is stopped.
func (c *BlockhashCache) Start(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		c.logger.WithError(err).Warn("initial blockhash fetch failed")
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case <-ticker.C:
			if err := c.refresh(ctx); err != nil {
				c.logger.WithError(err).Warn("blockhash refresh failed")
			}
		}
	}
}

// Stop halts the refresh loop.
func (c *BlockhashCache) Stop() {
	close(c.stop)
}

func (c *BlockhashCache) refresh(ctx context.Context) error {
	hash, err := c.source.GetLatestBlockhash(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.hash = hash
	c.set = true
	c.mu.Unlock()
	return nil
}

// Get returns the most recently cached blockhash. It never calls the RPC:
// spec.md §4.7's "never call the RPC synchronously from the builder".
func (c *BlockhashCache) Get() (solana.Hash, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return solana.Hash{}, errs.New(errs.KindRPC, "txbuilder.BlockhashCache.Get", errBlockhashNotReady)
	}
	return c.hash, nil
}
