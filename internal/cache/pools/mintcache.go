// Package pools holds the three caches spec.md §4.3 describes: a loading
// MintRecord cache, a persistent pool-by-address cache, and a pools-
// containing-mint secondary index. Grounded on the teacher's
// internal/cache/redis.go connection/logging conventions, generalized from
// a swap-event list store into typed, TTL'd KV entries.
package pools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MintRecord is the immutable-after-creation mint metadata spec.md §3
// describes.
type MintRecord struct {
	Address      chain.Addr `json:"address"`
	HumanRepr    string     `json:"human_repr"`
	Decimals     uint8      `json:"decimals"`
	TokenProgram chain.Addr `json:"token_program"`
}

// DefaultMintTTL is the cache's default TTL for mint records, per spec.md
// §4.3: "default 3 days".
const DefaultMintTTL = 72 * time.Hour

// MintLoader builds a MintRecord for a mint address; it is the collaborator
// MintCache calls on a cache miss. The loader in this repository
// (orchestrator.RPCMintLoader) reads the mint account only; no metadata PDA
// is fetched, so records carry no name or symbol.
type MintLoader interface {
	LoadMint(ctx context.Context, addr chain.Addr) (MintRecord, error)
}

// MintCache is a loading, TTL'd cache in front of a MintLoader, redis-backed
// so multiple bot instances share the same mint metadata.
type MintCache struct {
	client *redis.Client
	loader MintLoader
	logger *logrus.Logger
	ttl    time.Duration
}

// MintCacheConfig mirrors the teacher's RedisConfig shape.
type MintCacheConfig struct {
	Client *redis.Client
	Loader MintLoader
	Logger *logrus.Logger
	TTL    time.Duration
}

func NewMintCache(cfg MintCacheConfig) *MintCache {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultMintTTL
	}
	return &MintCache{client: cfg.Client, loader: cfg.Loader, logger: cfg.Logger, ttl: cfg.TTL}
}

func mintKey(addr chain.Addr) string {
	return "mint:" + addr.String()
}

// Get returns the cached MintRecord, loading and caching it (falling back to
// an "Unknown" symbol if the loader can't find metadata) on a miss.
func (c *MintCache) Get(ctx context.Context, addr chain.Addr) (MintRecord, error) {
	key := mintKey(addr)
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var rec MintRecord
		if jerr := json.Unmarshal([]byte(raw), &rec); jerr == nil {
			return rec, nil
		}
		c.logger.WithField("mint", addr.String()).Warn("dropping corrupt mint cache entry")
	} else if err != redis.Nil {
		c.logger.WithError(err).WithField("mint", addr.String()).Warn("mint cache read failed, falling through to loader")
	}

	rec, loadErr := c.loader.LoadMint(ctx, addr)
	if loadErr != nil {
		rec = MintRecord{Address: addr, HumanRepr: "Unknown"}
		c.logger.WithError(loadErr).WithField("mint", addr.String()).Debug("mint metadata missing, caching Unknown placeholder")
	}

	data, jerr := json.Marshal(rec)
	if jerr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.logger.WithError(serr).WithField("mint", addr.String()).Warn("failed to write-through mint record")
		}
	}
	return rec, nil
}

// Invalidate evicts a mint record ahead of its TTL.
func (c *MintCache) Invalidate(ctx context.Context, addr chain.Addr) error {
	if err := c.client.Del(ctx, mintKey(addr)).Err(); err != nil {
		return fmt.Errorf("pools: invalidating mint %s: %w", addr, err)
	}
	return nil
}
