package txbuilder

import (
	"math/rand"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// associatedTokenProgramID is the SPL associated-token-account program,
// shared across every owner/mint/token-program combination.
var associatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// Token2022ProgramID is the newer SPL token program; DefaultTokenProgramResolver
// never returns this (see builder.go), but callers deriving an ATA for a
// mint known to be Token-2022 (e.g. trace's profitability extraction, trying
// both programs per find_ata_owner) need it exported.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint), the same
// [owner, token_program, mint] seed layout swapengine.FindAssociatedTokenAddress
// uses, generalized to take the owning token program explicitly so Token-2022
// mints derive correctly instead of always assuming classic SPL Token.
func FindAssociatedTokenAddress(owner, mint, tokenProgram chain.Addr) (ata chain.Addr, bump uint8, err error) {
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		associatedTokenProgramID,
	)
}

// vaultTokenAccountSeed is the fixed PDA seed prefix spec.md §4.7 names for
// the flash-loan vault token account.
var vaultTokenAccountSeed = []byte("vault_token_account")

// DeriveVaultTokenAccount derives vault_token_account = find_pda(seeds=[
// "vault_token_account", mint], program=mevProgram), the account the
// flash-loan leg of the MEV instruction writes into.
func DeriveVaultTokenAccount(mevProgram, mint chain.Addr) (chain.Addr, uint8, error) {
	return solana.FindProgramAddress([][]byte{vaultTokenAccountSeed, mint.Bytes()}, mevProgram)
}

// FeeCollectors names the three non-flash-loan fee accounts (one picked at
// random per transaction, see Select) plus
// the single flash-loan fee account spec.md §4.7 describes.
type FeeCollectors struct {
	Flashloan    chain.Addr
	NonFlashloan [3]chain.Addr
}

// Select returns the flash-loan fee account when useFlashloan is set, or
// otherwise randomly picks one of the three non-flash-loan collectors —
// construct.rs's fee_collector(use_flashloan) via random_select.
func (f FeeCollectors) Select(useFlashloan bool) chain.Addr {
	if useFlashloan {
		return f.Flashloan
	}
	return f.NonFlashloan[rand.Intn(len(f.NonFlashloan))]
}
