package txbuilder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAssociatedTokenAddress_DeterministicPerTokenProgram(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	token2022 := solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	splATA, _, err := FindAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
	require.NoError(t, err)
	t22ATA, _, err := FindAssociatedTokenAddress(owner, mint, token2022)
	require.NoError(t, err)

	assert.False(t, splATA.Equals(t22ATA), "different token programs must derive different ATAs")

	again, _, err := FindAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
	require.NoError(t, err)
	assert.True(t, splATA.Equals(again), "derivation must be deterministic")
}

func TestDeriveVaultTokenAccount_Deterministic(t *testing.T) {
	mevProgram := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	a, _, err := DeriveVaultTokenAccount(mevProgram, mint)
	require.NoError(t, err)
	b, _, err := DeriveVaultTokenAccount(mevProgram, mint)
	require.NoError(t, err)
	assert.True(t, a.Equals(b))
}

func TestFeeCollectors_Select(t *testing.T) {
	flashloan := solana.NewWallet().PublicKey()
	nonFlash := [3]solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}
	fc := FeeCollectors{Flashloan: flashloan, NonFlashloan: nonFlash}

	assert.True(t, fc.Select(true).Equals(flashloan))

	seen := fc.Select(false)
	matched := false
	for _, acc := range nonFlash {
		if seen.Equals(acc) {
			matched = true
		}
	}
	assert.True(t, matched, "non-flashloan selection must be one of the three configured accounts")
}
