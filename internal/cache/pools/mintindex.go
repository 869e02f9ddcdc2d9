package pools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// addrSet is a small mutex-guarded set of pool addresses, one per mint.
type addrSet struct {
	mu      sync.Mutex
	members map[chain.Addr]struct{}
}

func newAddrSet() *addrSet {
	return &addrSet{members: make(map[chain.Addr]struct{})}
}

func (s *addrSet) add(addr chain.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[addr] = struct{}{}
}

func (s *addrSet) remove(addr chain.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, addr)
}

func (s *addrSet) slice() []chain.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chain.Addr, 0, len(s.members))
	for a := range s.members {
		out = append(out, a)
	}
	return out
}

// MintIndex is the pools-containing-mint secondary index from spec.md §4.3:
// mint -> set of pool addresses, lazily hydrated from the backing store on
// first access per mint and kept in sync in-band as discovery upserts pools.
type MintIndex struct {
	mu     sync.Mutex
	mem    map[chain.Addr]*addrSet
	client *redis.Client
	logger *logrus.Logger
}

func NewMintIndex(client *redis.Client, logger *logrus.Logger) *MintIndex {
	if logger == nil {
		logger = logrus.New()
	}
	return &MintIndex{mem: make(map[chain.Addr]*addrSet), client: client, logger: logger}
}

func (idx *MintIndex) getSet(mint chain.Addr) (*addrSet, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	set, ok := idx.mem[mint]
	return set, ok
}

func (idx *MintIndex) putSet(mint chain.Addr, set *addrSet) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.mem[mint] = set
}

func mintIndexKey(mint chain.Addr) string {
	return "mintidx:" + mint.String()
}

// PoolsFor returns every pool address known to reference mint, hydrating
// from the backing store on first access.
func (idx *MintIndex) PoolsFor(ctx context.Context, mint chain.Addr) ([]chain.Addr, error) {
	if set, ok := idx.getSet(mint); ok {
		return set.slice(), nil
	}

	set := newAddrSet()
	if idx.client != nil {
		raw, err := idx.client.SMembers(ctx, mintIndexKey(mint)).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("pools: hydrating mint index for %s: %w", mint, err)
		}
		for _, member := range raw {
			var addr chain.Addr
			if jerr := json.Unmarshal([]byte(member), &addr); jerr == nil {
				set.add(addr)
			}
		}
	}
	idx.putSet(mint, set)
	return set.slice(), nil
}

// Upsert records that pool references mint, updating both tiers. Called from
// C5 discovery whenever a pool is decoded or refreshed (spec.md: "updated
// in-band on upsert_pool").
func (idx *MintIndex) Upsert(ctx context.Context, mint, pool chain.Addr) error {
	set, ok := idx.getSet(mint)
	if !ok {
		set = newAddrSet()
		idx.putSet(mint, set)
	}
	set.add(pool)

	if idx.client == nil {
		return nil
	}
	member, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("pools: marshaling pool %s for mint index: %w", pool, err)
	}
	if err := idx.client.SAdd(ctx, mintIndexKey(mint), member).Err(); err != nil {
		return fmt.Errorf("pools: recording %s under mint %s: %w", pool, mint, err)
	}
	return nil
}

// Remove drops pool from mint's set, e.g. when a pool is found to be closed
// or misattributed.
func (idx *MintIndex) Remove(ctx context.Context, mint, pool chain.Addr) error {
	if set, ok := idx.getSet(mint); ok {
		set.remove(pool)
	}
	if idx.client == nil {
		return nil
	}
	member, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("pools: marshaling pool %s for mint index removal: %w", pool, err)
	}
	if err := idx.client.SRem(ctx, mintIndexKey(mint), member).Err(); err != nil {
		return fmt.Errorf("pools: removing %s from mint %s: %w", pool, mint, err)
	}
	return nil
}
