package ingress

import (
	"context"
	"sync"
	"time"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// Debouncer coalesces rapid repeated updates to the same account within a
// window into one dispatch of the latest state, per spec.md §4.4: a pool
// account can be rewritten many times per slot under load, and only the
// newest state (by invariant I5, (slot, write_version)) is worth acting on.
type Debouncer struct {
	window time.Duration
	emit   AccountHandler

	mu      sync.Mutex
	pending map[chain.Addr]chain.AccountState
	timers  map[chain.Addr]*time.Timer
	ctx     context.Context
}

func NewDebouncer(windowMillis int, emit AccountHandler) *Debouncer {
	return &Debouncer{
		window:  time.Duration(windowMillis) * time.Millisecond,
		emit:    emit,
		pending: make(map[chain.Addr]chain.AccountState),
		timers:  make(map[chain.Addr]*time.Timer),
	}
}

// Start records the context the eventual emit calls should run under.
func (d *Debouncer) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()
}

// Submit records state as the latest observation for its account, replacing
// any not-yet-fired pending state for that same account, and (re)arms a
// single timer per account so bursts collapse to one dispatch.
func (d *Debouncer) Submit(state chain.AccountState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[state.PubKey]; ok && !state.Newer(prev) {
		return
	}
	d.pending[state.PubKey] = state

	if _, armed := d.timers[state.PubKey]; armed {
		return
	}
	d.timers[state.PubKey] = time.AfterFunc(d.window, func() { d.fire(state.PubKey) })
}

func (d *Debouncer) fire(addr chain.Addr) {
	d.mu.Lock()
	state, ok := d.pending[addr]
	delete(d.pending, addr)
	delete(d.timers, addr)
	ctx := d.ctx
	d.mu.Unlock()

	if !ok || d.emit == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.emit(ctx, state)
}
