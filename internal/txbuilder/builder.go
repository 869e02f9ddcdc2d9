// Package txbuilder implements C7: assembling the single atomic transaction
// that invokes the on-chain MEV program across the two legs an arbitrage
// detector (C6) selected, and handing it to the submission layer (C8). See
// spec.md §4.7.
package txbuilder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/arb"
	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// PoolConfigs resolves a pool address to its decoded AnyPoolConfig — the
// same narrow shape arb.PoolConfigs declares, restated here so this package
// doesn't depend on internal/arb for anything but the MevBotFire/Publisher
// types it's wired to.
type PoolConfigs interface {
	Get(ctx context.Context, addr chain.Addr) (dex.AnyPoolConfig, bool, error)
}

// TokenProgramResolver resolves the SPL token program that owns a mint
// (classic Token vs Token-2022). DefaultTokenProgramResolver always returns
// the classic program; a real resolver (backed by get_account_info on the
// mint) can be substituted once that lookup is wired.
type TokenProgramResolver interface {
	TokenProgramFor(ctx context.Context, mint chain.Addr) (chain.Addr, error)
}

// DefaultTokenProgramResolver assumes every mint uses the classic SPL Token
// program. Most mints this bot trades are legacy SPL tokens; Token-2022
// mints need a real resolver wired in before they'd build a correct ATA.
type DefaultTokenProgramResolver struct{}

func (DefaultTokenProgramResolver) TokenProgramFor(ctx context.Context, mint chain.Addr) (chain.Addr, error) {
	return solana.TokenProgramID, nil
}

// Submitter hands a signed transaction to the submission layer (C8).
type Submitter interface {
	Submit(ctx context.Context, tx *solana.Transaction) error
}

// Signer signs a transaction with the bot's wallet key, matching
// wallet.Wallet.SignTx's shape.
type Signer interface {
	SignTx(tx *solana.Transaction) error
}

// Config wires a Builder's collaborators and static parameters.
type Config struct {
	MevProgram        chain.Addr
	Payer             chain.Addr
	WsolMint          chain.Addr
	FlashloanAccount  chain.Addr
	FeeCollectors     FeeCollectors
	UseFlashloan      bool
	NoFailureMode     bool
	ComputeUnitLimit  uint32
	ComputeUnitPrice  uint64
	MinimumProfit     uint64
	ALTKeys           []chain.Addr
	Pools             PoolConfigs
	TokenPrograms     TokenProgramResolver
	Blockhash         *BlockhashCache
	ALTs              []ALT // pre-fetched at startup; spec.md §4.7 step 4
	Signer            Signer
	Submitter         Submitter
	JitterSeed        func() uint64
	Logger            *logrus.Logger
}

// Builder implements C7: turning an arb.MevBotFire into a signed
// solana.Transaction and handing it to C8.
type Builder struct {
	cfg Config
}

// New builds a Builder from cfg, defaulting the token-program resolver and
// logger.
func New(cfg Config) *Builder {
	if cfg.TokenPrograms == nil {
		cfg.TokenPrograms = DefaultTokenProgramResolver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.JitterSeed == nil {
		cfg.JitterSeed = func() uint64 { return 0 }
	}
	return &Builder{cfg: cfg}
}

var _ arb.Publisher = (*Builder)(nil)

// Fire implements arb.Publisher: it builds the transaction for the fired
// opportunity and submits it. A build failure (missing blockhash,
// unresolvable leg, compile or sign failure) is a hard error; the detector never retries
// an opportunity once it's committed it to the builder.
func (b *Builder) Fire(ctx context.Context, fire arb.MevBotFire) error {
	tx, err := b.Build(ctx, fire)
	if err != nil {
		return err
	}
	if b.cfg.Submitter == nil {
		return nil
	}
	return b.cfg.Submitter.Submit(ctx, tx)
}

// Build assembles and signs the transaction for fire, per spec.md §4.7:
// compute-budget ixs, the single MEV program invocation over the buy/sell
// legs, compiled against the configured ALTs and the cached blockhash.
func (b *Builder) Build(ctx context.Context, fire arb.MevBotFire) (*solana.Transaction, error) {
	buyLeg, err := b.resolveLeg(ctx, fire.BuyPool)
	if err != nil {
		return nil, fmt.Errorf("resolve buy leg: %w", err)
	}
	sellLeg, err := b.resolveLeg(ctx, fire.SellPool)
	if err != nil {
		return nil, fmt.Errorf("resolve sell leg: %w", err)
	}

	minorTokenProgram, err := b.cfg.TokenPrograms.TokenProgramFor(ctx, fire.MinorMint)
	if err != nil {
		return nil, fmt.Errorf("resolve minor mint token program: %w", err)
	}

	mevIx, err := BuildMevInstruction(ctx, InstructionParams{
		MevProgram:        b.cfg.MevProgram,
		Payer:             b.cfg.Payer,
		WsolMint:          b.cfg.WsolMint,
		MinorMint:         fire.MinorMint,
		MinorTokenProgram: minorTokenProgram,
		FeeCollector:      b.cfg.FeeCollectors.Select(b.cfg.UseFlashloan),
		UseFlashloan:      b.cfg.UseFlashloan,
		FlashloanAccount:  b.cfg.FlashloanAccount,
		MinimumProfit:     b.cfg.MinimumProfit,
		ComputeUnitLimit:  b.cfg.ComputeUnitLimit,
		NoFailureMode:     b.cfg.NoFailureMode,
		Legs:              []Leg{buyLeg, sellLeg},
	})
	if err != nil {
		return nil, err
	}

	gasIxs := GasInstructions(b.cfg.ComputeUnitLimit, Jitter(b.cfg.JitterSeed()), b.cfg.ComputeUnitPrice)
	instructions := append(append([]solana.Instruction{}, gasIxs...), mevIx)

	if b.cfg.Blockhash == nil {
		return nil, errs.New(errs.KindRPC, "txbuilder.Build", fmt.Errorf("no blockhash cache configured"))
	}
	blockhash, err := b.cfg.Blockhash.Get()
	if err != nil {
		return nil, err
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(b.cfg.Payer)}
	if len(b.cfg.ALTs) > 0 {
		opts = append(opts, solana.TransactionAddressTables(ToTableMap(b.cfg.ALTs)))
	}

	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "txbuilder.Build", fmt.Errorf("compile message: %w", err))
	}

	if b.cfg.Signer != nil {
		if err := b.cfg.Signer.SignTx(tx); err != nil {
			return nil, errs.New(errs.KindFatal, "txbuilder.Build", fmt.Errorf("sign transaction: %w", err))
		}
	}

	return tx, nil
}

func (b *Builder) resolveLeg(ctx context.Context, addr chain.Addr) (Leg, error) {
	cfg, ok, err := b.cfg.Pools.Get(ctx, addr)
	if err != nil {
		return Leg{}, err
	}
	if !ok || cfg.Data == nil {
		return Leg{}, fmt.Errorf("pool %s not found in cache", addr)
	}
	return Leg{Addr: addr, DexType: cfg.Base.DexType, Data: cfg.Data}, nil
}
