// Package raydiumcp decodes Raydium's constant-product ("CPMM") pool
// accounts. Layout and decode style grounded on the SolRoute CPMMPool
// decoder (see DESIGN.md C2): skip the 8-byte anchor discriminator, then
// `bin.NewBinDecoder(data).Decode(p)` struct-tag decoding via
// github.com/gagliardetto/binary, instead of the manual byte-offset style
// meteoradlmm uses — this family's layout has no packed bitfields, so the
// reflective decoder is the idiomatic fit here, same as the teacher's other
// borsh-shaped accounts.
package raydiumcp

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is Raydium's CPMM owner program on mainnet.
var ProgramID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

func init() {
	dex.RegisterOwner(dex.RaydiumCp, ProgramID)
}

// Pool mirrors the on-chain CPMM pool state, field order matching the
// anchor account layout (see SolRoute's CPMMPool).
type Pool struct {
	AmmConfig      solana.PublicKey
	PoolCreator    solana.PublicKey
	Token0Vault    solana.PublicKey
	Token1Vault    solana.PublicKey
	LpMint         solana.PublicKey
	Token0Mint     solana.PublicKey
	Token1Mint     solana.PublicKey
	Token0Program  solana.PublicKey
	Token1Program  solana.PublicKey
	ObservationKey solana.PublicKey
	AuthBump       uint8
	Status         uint8
	LpMintDecimals uint8
	Mint0Decimals  uint8
	Mint1Decimals  uint8
	_              [3]uint8
	LpSupply       uint64
}

var _ dex.PoolData = (*Pool)(nil)

func (p *Pool) BaseMint() chain.Addr   { return p.Token0Mint }
func (p *Pool) QuoteMint() chain.Addr  { return p.Token1Mint }
func (p *Pool) BaseVault() chain.Addr  { return p.Token0Vault }
func (p *Pool) QuoteVault() chain.Addr { return p.Token1Vault }

// MidPrice fetches both vault token-account balances through fetcher and
// returns reserve_quote/reserve_base, decimal-normalized, per spec.md §4.2's
// constant-product formula.
func (p *Pool) MidPrice(ctx context.Context, from, to chain.Addr, fetcher dex.AccountFetcher) (dex.Quote, error) {
	if fetcher == nil {
		return dex.Quote{}, fmt.Errorf("raydiumcp: MidPrice requires a non-nil account fetcher")
	}
	baseVault, err := fetcher.GetAccount(ctx, p.BaseVault())
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumcp: fetching base vault: %w", err)
	}
	quoteVault, err := fetcher.GetAccount(ctx, p.QuoteVault())
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumcp: fetching quote vault: %w", err)
	}
	baseReserve, err := splTokenAmount(baseVault.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumcp: base vault: %w", err)
	}
	quoteReserve, err := splTokenAmount(quoteVault.Data)
	if err != nil {
		return dex.Quote{}, fmt.Errorf("raydiumcp: quote vault: %w", err)
	}
	if baseReserve.Sign() == 0 {
		return dex.Quote{}, fmt.Errorf("raydiumcp: zero base reserve")
	}
	price := new(big.Rat).SetFrac(quoteReserve, baseReserve)
	if from.Equals(p.QuoteMint()) && to.Equals(p.BaseMint()) {
		price = new(big.Rat).Inv(price)
	}
	price = dex.NormalizeDecimals(price, int8(p.Mint1Decimals), int8(p.Mint0Decimals))
	return dex.Quote{Price: price}, nil
}

// splTokenAmount reads the little-endian u64 "amount" field at byte offset
// 64 of an SPL token account (mint 0..32, owner 32..64, amount 64..72).
func splTokenAmount(data []byte) (*big.Int, error) {
	if len(data) < 72 {
		return nil, dex.ErrShortBuffer
	}
	var amount uint64
	for i := 0; i < 8; i++ {
		amount |= uint64(data[64+i]) << (8 * i)
	}
	return new(big.Int).SetUint64(amount), nil
}

// Decode parses a Raydium CPMM pool account, skipping the anchor
// discriminator before struct-tag decoding.
func Decode(data []byte) (dex.PoolData, error) {
	if len(data) <= 8 {
		return nil, fmt.Errorf("raydiumcp: %w: got %d bytes", dex.ErrShortBuffer, len(data))
	}
	p := &Pool{}
	decoder := bin.NewBinDecoder(data[8:])
	if err := decoder.Decode(p); err != nil {
		return nil, fmt.Errorf("raydiumcp: decode: %w", err)
	}
	return p, nil
}

// swapIxPoolAccountIndex is the fixed "pool_state" account index in a
// Raydium CPMM swap instruction (see SolRoute's BuildSwapInstructions:
// accounts[3]).
const swapIxPoolAccountIndex = 3

// ExtractPoolFrom validates the instruction's program id and extracts the
// pool address from the fixed account index.
func ExtractPoolFrom(ix chain.Instruction) (chain.Addr, error) {
	if !ix.ProgramID.Equals(ProgramID) {
		return chain.Addr{}, fmt.Errorf("raydiumcp: instruction program id %s does not match owner %s", ix.ProgramID, ProgramID)
	}
	if len(ix.Accounts) <= swapIxPoolAccountIndex {
		return chain.Addr{}, fmt.Errorf("raydiumcp: swap instruction has too few accounts")
	}
	return ix.Accounts[swapIxPoolAccountIndex].PubKey, nil
}

// authoritySeed is the PDA seed Raydium CPMM uses for the vault authority.
var authoritySeed = []byte("vault_and_lp_mint_auth_seed")

func authorityPDA() (chain.Addr, uint8, error) {
	return solana.FindProgramAddress([][]byte{authoritySeed}, ProgramID)
}

// BuildMevBotIxAccounts produces the account list the MEV program expects
// for a Raydium CPMM leg: payer, authority, amm_config, vaults, mints, token
// programs, observation state. The pool account itself is not part of the
// list.
func BuildMevBotIxAccounts(payer chain.Addr, pool dex.PoolData) ([]chain.AccountMeta, error) {
	p, ok := pool.(*Pool)
	if !ok {
		return nil, fmt.Errorf("raydiumcp: BuildMevBotIxAccounts called with non-Raydium-CPMM pool data")
	}
	authority, _, err := authorityPDA()
	if err != nil {
		return nil, fmt.Errorf("raydiumcp: deriving authority PDA: %w", err)
	}
	return []chain.AccountMeta{
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: authority},
		{PubKey: p.AmmConfig},
		{PubKey: p.Token0Vault, IsWritable: true},
		{PubKey: p.Token1Vault, IsWritable: true},
		{PubKey: p.Token0Mint},
		{PubKey: p.Token1Mint},
		{PubKey: solana.TokenProgramID},
		{PubKey: solana.TokenProgramID},
		{PubKey: p.ObservationKey, IsWritable: true},
	}, nil
}
