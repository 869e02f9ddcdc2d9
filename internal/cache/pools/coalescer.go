package pools

import (
	"context"
	"sync"
	"time"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// BatchFetcher performs one getMultipleAccounts-style round trip for a set of
// addresses. Implemented by the RPC client; the coalescer's only job is to
// shrink the number of these round trips under concurrent load.
type BatchFetcher interface {
	GetMultipleAccounts(ctx context.Context, addrs []chain.Addr) (map[chain.Addr]chain.AccountState, error)
}

type coalescedRequest struct {
	addr   chain.Addr
	result chan coalescedResult
}

type coalescedResult struct {
	state chain.AccountState
	err   error
}

// Coalescer batches concurrent Get calls for distinct addresses arriving
// within Window into a single GetMultipleAccounts round trip, per spec.md
// §4.3's "buffered get-account coalescer". Each caller still gets its own
// result (or error) and still observes its own ctx cancellation.
type Coalescer struct {
	fetcher BatchFetcher
	window  time.Duration

	mu      sync.Mutex
	pending []coalescedRequest
	timer   *time.Timer
}

// DefaultCoalesceWindow is how long the coalescer waits for more callers to
// join a batch before firing the underlying RPC call.
const DefaultCoalesceWindow = 15 * time.Millisecond

func NewCoalescer(fetcher BatchFetcher, window time.Duration) *Coalescer {
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	return &Coalescer{fetcher: fetcher, window: window}
}

// Get enqueues addr into the current (or a freshly started) batch window and
// blocks until that batch's RPC round trip resolves or ctx is canceled.
func (c *Coalescer) Get(ctx context.Context, addr chain.Addr) (chain.AccountState, error) {
	req := coalescedRequest{addr: addr, result: make(chan coalescedResult, 1)}

	c.mu.Lock()
	c.pending = append(c.pending, req)
	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.flush)
	}
	c.mu.Unlock()

	select {
	case res := <-req.result:
		return res.state, res.err
	case <-ctx.Done():
		return chain.AccountState{}, ctx.Err()
	}
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	addrs := make([]chain.Addr, 0, len(batch))
	seen := make(map[chain.Addr]struct{}, len(batch))
	for _, req := range batch {
		if _, ok := seen[req.addr]; ok {
			continue
		}
		seen[req.addr] = struct{}{}
		addrs = append(addrs, req.addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	states, err := c.fetcher.GetMultipleAccounts(ctx, addrs)

	for _, req := range batch {
		if err != nil {
			req.result <- coalescedResult{err: err}
			continue
		}
		state, ok := states[req.addr]
		if !ok {
			req.result <- coalescedResult{err: errAccountNotFound}
			continue
		}
		req.result <- coalescedResult{state: state}
	}
}

var errAccountNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "pools: account not found in batch response" }
