// Package orchestrator implements C10: constructing every collaborator in
// the pipeline (C1-C9) from a loaded config.Config and owning their
// lifecycle — one "start everything" entry point with deterministic
// shutdown, per spec.md §4.10. Grounded on the teacher's cmd/indexer/main.go
// signal-driven shutdown skeleton, generalized from a single indexer loop
// into a multi-task supervisor that cancels one context and waits for every
// background goroutine (blockhash refresher, tip fetcher, relay pinger,
// ingress pool, stream subscriber) to drain.
package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/arb"
	"github.com/aman-zulfiqar/arbbot/internal/cache/pools"
	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/config"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/discovery"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
	"github.com/aman-zulfiqar/arbbot/internal/ingress"
	"github.com/aman-zulfiqar/arbbot/internal/rpc"
	"github.com/aman-zulfiqar/arbbot/internal/submit"
	"github.com/aman-zulfiqar/arbbot/internal/trace"
	"github.com/aman-zulfiqar/arbbot/internal/txbuilder"
	"github.com/aman-zulfiqar/arbbot/internal/wallet"
)

// Orchestrator owns the full graph of collaborators built from a
// config.Config, and their lifecycle: Run starts every background task and
// blocks until ctx is canceled, Shutdown performs a bounded drain.
type Orchestrator struct {
	cfg    *config.Config
	logger *logrus.Logger

	rpcClient  *rpc.Client
	altClient  *solanarpc.Client
	redis      *redis.Client
	wallet     *wallet.Wallet

	poolCache *pools.PoolCache
	mintCache *pools.MintCache
	mintIndex *pools.MintIndex
	coalescer *pools.Coalescer

	knownPools *discovery.KnownPools
	discovery  *discovery.Discovery
	tracker    *stateTracker
	detector   *arb.Detector

	blockhash *txbuilder.BlockhashCache
	builder   *txbuilder.Builder

	tipFetcher *submit.TipFloorFetcher
	fast       *submit.FastProvider
	router     *submit.Router

	stream ingress.StreamProvider
	pool   *ingress.Pool

	summarizer *trace.Summarizer

	mu      sync.Mutex
	running bool
}

// New constructs every collaborator but starts nothing: RPC clients, caches,
// the detector, the transaction builder, the submission router, and the
// ingress pool are all wired together eagerly so a construction failure
// (bad pubkey in config, unreachable ALT) surfaces before Run is called.
func New(cfg *config.Config, logger *logrus.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logrus.New()
	}

	desiredMint, err := solana.PublicKeyFromBase58(cfg.DesiredMint)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("DESIRED_MINT: %w", err))
	}
	mevProgram, err := solana.PublicKeyFromBase58(cfg.MevProgramID)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("MEV_PROGRAM_ID: %w", err))
	}
	wsolMint, err := solana.PublicKeyFromBase58(cfg.WsolMint)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("WSOL_MINT: %w", err))
	}
	flashloanAcct, err := solana.PublicKeyFromBase58(cfg.FlashloanFeeAccount)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("FLASHLOAN_FEE_ACCOUNT: %w", err))
	}
	var nonFlashloan [3]chain.Addr
	for i, s := range cfg.NonFlashloanAccounts {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("NON_FLASHLOAN_ACCOUNT_%d: %w", i+1, err))
		}
		nonFlashloan[i] = addr
	}
	spreadFloor, ok := new(big.Rat).SetString(cfg.SpreadFloor)
	if !ok {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("SPREAD_FLOOR: invalid rational %q", cfg.SpreadFloor))
	}
	altKeys := make([]chain.Addr, 0, len(cfg.AltAddresses))
	for _, s := range cfg.AltAddresses {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("ALT_ADDRESSES: %w", err))
		}
		altKeys = append(altKeys, addr)
	}

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	altClient := solanarpc.New(cfg.RPCUrl)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	w, err := wallet.NewWalletFromEnv()
	if err != nil {
		return nil, errs.New(errs.KindFatal, "orchestrator.New", fmt.Errorf("wallet: %w", err))
	}

	coalescer := pools.NewCoalescer(rpcClient, pools.DefaultCoalesceWindow)
	mintIndex := pools.NewMintIndex(redisClient, logger)
	mintCache := pools.NewMintCache(pools.MintCacheConfig{
		Client: redisClient,
		Loader: NewRPCMintLoader(rpcClient),
		Logger: logger,
	})
	poolCache := pools.NewPoolCache(pools.PoolCacheConfig{
		Client: redisClient,
		RPC:    rpcClient,
		Logger: logger,
	})

	knownPools := discovery.NewKnownPools()
	disc := discovery.New(discovery.Config{
		DesiredMint: desiredMint,
		Store:       poolCache,
		MintIndex:   mintIndex,
		Known:       knownPools,
		Logger:      logger,
	})

	dedup := arb.NewDedup(cfg.DedupBackoff)

	ctx := context.Background()
	alts, err := txbuilder.FetchAddressLookupTables(ctx, altClient, altKeys, logger)
	if err != nil {
		return nil, err
	}

	blockhashCache := txbuilder.NewBlockhashCache(
		txbuilder.WalletBlockhashSource{Wallet: w, Commitment: "processed"},
		cfg.BlockhashRefresh,
		logger,
	)

	var tipFetcher *submit.TipFloorFetcher
	providers := []submit.Provider{submit.NewDirectProvider(rpcClient, submit.DefaultDirectConfig)}
	if cfg.JitoRelayURL != "" {
		tipFetcher = submit.NewTipFloorFetcher(logger, submit.DefaultTipFetchInterval)
		providers = append(providers, submit.NewBundleProvider(submit.BundleConfig{
			BaseURL: cfg.JitoRelayURL,
			Tips:    tipFetcher,
		}))
	}
	var fast *submit.FastProvider
	if cfg.HeliusRelayURL != "" {
		fast = submit.NewFastProvider(submit.FastConfig{
			BaseURL: cfg.HeliusRelayURL,
			Logger:  logger,
		})
		providers = append(providers, fast)
	}
	router := submit.NewRouter(logger, providers...)

	builder := txbuilder.New(txbuilder.Config{
		MevProgram:       mevProgram,
		Payer:            w.PublicKey(),
		WsolMint:         wsolMint,
		FlashloanAccount: flashloanAcct,
		FeeCollectors:    txbuilder.FeeCollectors{Flashloan: flashloanAcct, NonFlashloan: nonFlashloan},
		UseFlashloan:     cfg.UseFlashloan,
		NoFailureMode:    cfg.NoFailureMode,
		ComputeUnitLimit: cfg.ComputeUnitLimit,
		ComputeUnitPrice: cfg.ComputeUnitPriceMicro,
		MinimumProfit:    cfg.MinProfitLamports,
		ALTKeys:          altKeys,
		Pools:            poolCache,
		Blockhash:        blockhashCache,
		ALTs:             alts,
		Signer:           w,
		Submitter:        router,
		JitterSeed:       func() uint64 { return uint64(time.Now().UnixNano()) },
		Logger:           logger,
	})

	detector := arb.New(arb.Config{
		DesiredMint: desiredMint,
		Siblings:    mintIndex,
		Pools:       poolCache,
		Fetcher:     coalescer,
		Publisher:   builder,
		SpreadFloor: spreadFloor,
		Backoff:     cfg.DedupBackoff,
		Dedup:       dedup,
		Logger:      logger,
	})

	tracker := newStateTracker()
	tokenProgram := chain.Addr(solana.TokenProgramID)
	routeProcessor := ingress.NewAccountUpdateRouteProcessor(
		knownPools,
		tracker,
		trackingDiscoverySink{tracker: tracker, next: disc},
		trackingCompareSink{tracker: tracker, next: detector},
		mintAccountSink{cache: mintCache, logger: logger},
		tokenProgram,
		txbuilder.Token2022ProgramID,
	)
	txRouteProcessor := ingress.NewTransactionRouteProcessor(noopTransactionSink{})

	var stream ingress.StreamProvider
	if cfg.StreamEndpoint != "" {
		stream = ingress.NewWebsocketStream(ingress.WebsocketConfig{
			Endpoint: cfg.StreamEndpoint,
			Subscriptions: []map[string]interface{}{
				{"jsonrpc": "2.0", "id": 1, "method": "programSubscribe", "params": []interface{}{
					mevProgram.String(), map[string]interface{}{"encoding": "base64", "commitment": "processed"},
				}},
			},
			Logger: logger,
		})
	} else {
		stream = ingress.NewPoller(ingress.PollerConfig{
			Source:   rpcClient,
			Watch:    nil,
			Interval: cfg.PollInterval,
			Logger:   logger,
		})
	}

	pool := ingress.NewPool(ingress.PoolConfig{
		Workers:        cfg.IngressWorkers,
		OnAccount:      routeProcessor.Handle,
		OnTransaction:  txRouteProcessor.Handle,
		Logger:         logger,
		DebounceWindow: cfg.DebounceMillis,
	})

	summarizer, err := trace.NewSummarizer(trace.SummarizerConfig{
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		rpcClient:  rpcClient,
		altClient:  altClient,
		redis:      redisClient,
		wallet:     w,
		poolCache:  poolCache,
		mintCache:  mintCache,
		mintIndex:  mintIndex,
		coalescer:  coalescer,
		knownPools: knownPools,
		discovery:  disc,
		tracker:    tracker,
		detector:   detector,
		blockhash:  blockhashCache,
		builder:    builder,
		tipFetcher: tipFetcher,
		fast:       fast,
		router:     router,
		stream:     stream,
		pool:       pool,
		summarizer: summarizer,
	}, nil
}

// noopTransactionSink is a placeholder TransactionSink for swap-instruction
// routing; the live pipeline decides opportunities from account-state
// comparisons (HandleAccountCompare), so the transaction-update path has no
// detector hook yet — see DESIGN.md.
type noopTransactionSink struct{}

func (noopTransactionSink) HandleSwapInstruction(ctx context.Context, dt dex.DexType, tx chain.Transaction, ix chain.Instruction) {
}

// Run starts every background task (blockhash refresher, tip-floor fetcher,
// relay keep-warm pinger, ingress worker pool, stream subscriber) and blocks
// until ctx is canceled or a fatal task error occurs, per spec.md §4.10.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator: already running")
	}
	o.running = true
	o.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan error, 8)

	runTask := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				o.logger.WithError(err).WithField("task", name).Error("background task exited")
				select {
				case errCh <- fmt.Errorf("%s: %w", name, err):
				default:
				}
			}
		}()
	}

	runTask("blockhash", o.blockhash.Start)
	if o.tipFetcher != nil {
		runTask("tip_floor", o.tipFetcher.Start)
	}
	if o.fast != nil {
		runTask("helius_ping", o.fast.Ping)
	}

	runTask("stream", func(ctx context.Context) error {
		return ingress.Run(ctx, o.stream, o.pool)
	})

	o.logger.Info("orchestrator: all background tasks started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		o.Shutdown(context.Background())
		wg.Wait()
		return err
	}

	o.Shutdown(context.Background())
	wg.Wait()
	return ctx.Err()
}

// Shutdown stops every owned background task: ingress workers drain first
// (their handlers call into the detector/builder/router, which must stay
// usable while in-flight work finishes), then the standalone tickers.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if o.stream != nil {
		_ = o.stream.Stop()
	}
	o.pool.Stop()
	o.blockhash.Stop()
	if o.tipFetcher != nil {
		o.tipFetcher.Stop()
	}
	if o.fast != nil {
		o.fast.Stop()
	}
	return nil
}

// DumpPool decodes and returns a single pool's current cached config, for
// the `dump-pool` CLI subcommand (spec.md §6).
func (o *Orchestrator) DumpPool(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, error) {
	cfg, ok, err := o.poolCache.Get(ctx, addr)
	if err != nil {
		return dex.AnyPoolConfig{}, err
	}
	if !ok {
		return dex.AnyPoolConfig{}, fmt.Errorf("orchestrator: pool %s not known", addr)
	}
	return cfg, nil
}

// Simulate runs the detector's evaluation for a single desired-mint sibling
// set without submitting anything, for the `simulate` CLI subcommand.
func (o *Orchestrator) Simulate(ctx context.Context, minor chain.Addr) error {
	return o.detector.Evaluate(ctx, minor)
}

// Wallet exposes the constructed wallet for callers that need the operator
// address (health checks, the `run` subcommand's startup log line).
func (o *Orchestrator) Wallet() *wallet.Wallet { return o.wallet }

// Summarizer exposes the optional trace summarizer; nil when no
// OpenRouter key is configured.
func (o *Orchestrator) Summarizer() *trace.Summarizer { return o.summarizer }
