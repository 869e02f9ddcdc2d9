package pools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/registry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AccountRPC is the narrow RPC collaborator the pool cache falls back to on
// a full miss (in-memory and backing store both empty).
type AccountRPC interface {
	GetAccountInfo(ctx context.Context, addr chain.Addr) (chain.AccountState, error)
}

// persistedPool is the backing-store wire format: raw account bytes plus
// enough metadata to reconstruct an AnyPoolConfig without round-tripping
// every per-family struct through JSON.
type persistedPool struct {
	DexType dex.DexType `json:"dex_type"`
	Raw     string      `json:"raw"` // base64 account bytes
}

// PoolCache is the persistent pool-by-address cache: in-memory -> backing
// store (redis) -> RPC, write-through on every new on-chain state, per
// spec.md §4.3.
type PoolCache struct {
	mem    sync.Map // chain.Addr -> dex.AnyPoolConfig
	client *redis.Client
	rpc    AccountRPC
	logger *logrus.Logger
	ttl    time.Duration
}

type PoolCacheConfig struct {
	Client *redis.Client
	RPC    AccountRPC
	Logger *logrus.Logger
	TTL    time.Duration
}

// DefaultPoolTTL bounds how long a decoded pool config is trusted without a
// fresh on-chain write; the discovery/ingress path (C4/C5) refreshes it on
// every account-state update well inside this window under normal load.
const DefaultPoolTTL = 10 * time.Minute

func NewPoolCache(cfg PoolCacheConfig) *PoolCache {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultPoolTTL
	}
	return &PoolCache{client: cfg.Client, rpc: cfg.RPC, logger: cfg.Logger, ttl: cfg.TTL}
}

func poolKey(addr chain.Addr) string {
	return "pool:" + addr.String()
}

// Get implements load-then-fill semantics: in-memory, then backing store,
// then RPC; each successful lower-tier load fills the tiers above it.
func (c *PoolCache) Get(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, bool, error) {
	if v, ok := c.mem.Load(addr); ok {
		return v.(dex.AnyPoolConfig), true, nil
	}

	if c.client != nil {
		raw, err := c.client.Get(ctx, poolKey(addr)).Result()
		if err == nil {
			var pp persistedPool
			if jerr := json.Unmarshal([]byte(raw), &pp); jerr == nil {
				cfg, derr := c.decode(addr, pp)
				if derr == nil {
					c.mem.Store(addr, cfg)
					return cfg, true, nil
				}
				c.logger.WithError(derr).WithField("pool", addr.String()).Warn("failed to decode cached pool entry")
			}
		} else if err != redis.Nil {
			c.logger.WithError(err).WithField("pool", addr.String()).Warn("pool backing-store read failed")
		}
	}

	if c.rpc == nil {
		return dex.AnyPoolConfig{}, false, nil
	}
	state, err := c.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		return dex.AnyPoolConfig{}, false, fmt.Errorf("pools: RPC fallback for %s: %w", addr, err)
	}
	dt := dex.DexTypeForOwner(state.Owner)
	if dt == dex.Unknown {
		return dex.AnyPoolConfig{}, false, nil
	}
	cfg, err := c.buildConfig(addr, dt, state.Data)
	if err != nil {
		return dex.AnyPoolConfig{}, false, fmt.Errorf("pools: decoding %s via RPC fallback: %w", addr, err)
	}
	if err := c.Put(ctx, addr, dt, state.Data, cfg); err != nil {
		c.logger.WithError(err).WithField("pool", addr.String()).Warn("write-through after RPC fallback failed")
	}
	return cfg, true, nil
}

func (c *PoolCache) decode(addr chain.Addr, pp persistedPool) (dex.AnyPoolConfig, error) {
	raw, err := base64.StdEncoding.DecodeString(pp.Raw)
	if err != nil {
		return dex.AnyPoolConfig{}, fmt.Errorf("pools: corrupt base64 payload: %w", err)
	}
	return c.buildConfig(addr, pp.DexType, raw)
}

func (c *PoolCache) buildConfig(addr chain.Addr, dt dex.DexType, raw []byte) (dex.AnyPoolConfig, error) {
	data, err := registry.LoadData(dt, raw)
	if err != nil {
		return dex.AnyPoolConfig{}, err
	}
	return dex.AnyPoolConfig{
		Base: dex.PoolBase{Address: addr, BaseMint: data.BaseMint(), QuoteMint: data.QuoteMint(), DexType: dt},
		Data: data,
	}, nil
}

// Put writes a freshly decoded pool through to the backing store and
// in-memory tier (spec.md §4.3: "write-through on every new on-chain
// state"). Invariant I3 (stable base/quote mint per pool) is the caller's
// responsibility to enforce before calling Put with a replacement config.
func (c *PoolCache) Put(ctx context.Context, addr chain.Addr, dt dex.DexType, raw []byte, cfg dex.AnyPoolConfig) error {
	c.mem.Store(addr, cfg)
	if c.client == nil {
		return nil
	}
	pp := persistedPool{DexType: dt, Raw: base64.StdEncoding.EncodeToString(raw)}
	data, err := json.Marshal(pp)
	if err != nil {
		return fmt.Errorf("pools: marshaling pool %s: %w", addr, err)
	}
	if err := c.client.Set(ctx, poolKey(addr), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("pools: write-through for %s: %w", addr, err)
	}
	return nil
}

// Evict invalidates both the in-memory and backing-store entries.
func (c *PoolCache) Evict(ctx context.Context, addr chain.Addr) error {
	c.mem.Delete(addr)
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, poolKey(addr)).Err(); err != nil {
		return fmt.Errorf("pools: evicting %s: %w", addr, err)
	}
	return nil
}

// GetAccount implements dex.AccountFetcher by delegating to the RPC
// collaborator, so PoolData.MidPrice implementations can fetch companion
// accounts (vaults, bin arrays) through the same cache boundary.
func (c *PoolCache) GetAccount(ctx context.Context, addr chain.Addr) (chain.AccountState, error) {
	if c.rpc == nil {
		return chain.AccountState{}, fmt.Errorf("pools: no RPC collaborator configured")
	}
	return c.rpc.GetAccountInfo(ctx, addr)
}

var _ dex.AccountFetcher = (*PoolCache)(nil)
