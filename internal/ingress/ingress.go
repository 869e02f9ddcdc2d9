// Package ingress turns raw stream updates (geyser-style account writes and
// confirmed transactions) into the canonical chain types and fans them out
// to the rest of the pipeline through a bounded worker pool, per spec.md §4.4.
package ingress

import (
	"context"
	"fmt"
	"sync"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/sirupsen/logrus"
)

// AccountHandler processes one decoded account-state update.
type AccountHandler func(ctx context.Context, state chain.AccountState)

// TransactionHandler processes one decoded confirmed transaction.
type TransactionHandler func(ctx context.Context, tx chain.Transaction)

// StreamProvider is the source of raw updates, grounded on the teacher's
// internal/storage.StreamProvider (Start/Stop), generalized from swap
// events to the two canonical update kinds this pipeline needs.
type StreamProvider interface {
	// Start begins streaming; it must not block past subscribing, and must
	// keep calling onAccount/onTx until ctx is canceled or Stop is called.
	Start(ctx context.Context, onAccount AccountHandler, onTx TransactionHandler) error
	// Stop terminates a running stream.
	Stop() error
}

// job carries one of the two update kinds (account state or transaction)
// routed through the worker pool's single bounded channel.
type job struct {
	account *chain.AccountState
	tx      *chain.Transaction
}

// Pool is a bounded-channel worker pool fanning raw updates out to a fixed
// number of goroutines, the same backpressure shape as the teacher's RPC
// client's retry loop applied to stream throughput instead of HTTP retries:
// a slow consumer blocks producers rather than growing memory unboundedly.
type Pool struct {
	workers   int
	queueSize int
	logger    *logrus.Logger

	onAccount AccountHandler
	onTx      TransactionHandler
	debouncer *Debouncer

	queue  chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	Workers        int
	QueueSize      int
	Logger         *logrus.Logger
	OnAccount      AccountHandler
	OnTransaction  TransactionHandler
	DebounceWindow int // milliseconds; 0 disables per-account debouncing
}

const (
	defaultWorkers   = 8
	defaultQueueSize = 4096
)

func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	p := &Pool{
		workers:   cfg.Workers,
		queueSize: cfg.QueueSize,
		logger:    cfg.Logger,
		onAccount: cfg.OnAccount,
		onTx:      cfg.OnTransaction,
		queue:     make(chan job, cfg.QueueSize),
	}
	if cfg.DebounceWindow > 0 {
		p.debouncer = NewDebouncer(cfg.DebounceWindow, p.dispatchAccount)
	}
	return p
}

// Start launches the worker goroutines. It returns immediately; call Wait or
// rely on ctx cancellation to know when workers have drained and exited.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	if p.debouncer != nil {
		p.debouncer.Start(ctx)
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.handle(ctx, j)
		}
	}
}

func (p *Pool) handle(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("ingress worker recovered from panic")
		}
	}()
	switch {
	case j.account != nil:
		if p.debouncer != nil {
			p.debouncer.Submit(*j.account)
			return
		}
		p.dispatchAccount(ctx, *j.account)
	case j.tx != nil:
		if p.onTx != nil {
			p.onTx(ctx, *j.tx)
		}
	}
}

func (p *Pool) dispatchAccount(ctx context.Context, state chain.AccountState) {
	if p.onAccount != nil {
		p.onAccount(ctx, state)
	}
}

// SubmitAccount enqueues an account-state update, blocking if the queue is
// full (deliberate backpressure; spec.md has no "drop on overflow" clause).
func (p *Pool) SubmitAccount(ctx context.Context, state chain.AccountState) error {
	select {
	case p.queue <- job{account: &state}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitTransaction enqueues a confirmed-transaction update.
func (p *Pool) SubmitTransaction(ctx context.Context, tx chain.Transaction) error {
	select {
	case p.queue <- job{tx: &tx}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels all workers and waits for them to drain.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// QueueDepth reports the current backlog, for health/metrics reporting.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

var errNilProvider = fmt.Errorf("ingress: nil stream provider")

// Run wires a StreamProvider into a Pool: every update the provider produces
// is submitted to the pool's queue instead of being handled inline on the
// provider's own goroutine, decoupling stream I/O from downstream decode
// work.
func Run(ctx context.Context, provider StreamProvider, pool *Pool) error {
	if provider == nil {
		return errNilProvider
	}
	pool.Start(ctx)
	return provider.Start(ctx,
		func(ctx context.Context, state chain.AccountState) {
			if err := pool.SubmitAccount(ctx, state); err != nil {
				pool.logger.WithError(err).Debug("dropping account update on shutdown")
			}
		},
		func(ctx context.Context, tx chain.Transaction) {
			if err := pool.SubmitTransaction(ctx, tx); err != nil {
				pool.logger.WithError(err).Debug("dropping transaction update on shutdown")
			}
		},
	)
}
