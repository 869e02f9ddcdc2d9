package txbuilder

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInstructionData_Scenario4 reproduces spec.md §8 scenario 4 literally:
// minimum_profit=253345, compute_unit_limit=580000, no_failure_mode=false,
// use_flashloan=true encodes to 1ca1dd030000000000a0d9080000000001.
func TestInstructionData_Scenario4(t *testing.T) {
	data := InstructionData(253345, 580000, false, true)
	assert.Equal(t, "1ca1dd030000000000a0d9080000000001", hex.EncodeToString(data))
	assert.Len(t, data, 17)
}

func TestInstructionData_NoFailureAndNoFlashloanFlags(t *testing.T) {
	data := InstructionData(1, 1, true, false)
	assert.Equal(t, uint8(1), data[13], "no_failure_mode flag byte")
	assert.Equal(t, uint8(0), data[16], "use_flashloan flag byte")
	assert.Equal(t, []byte{0, 0}, data[14:16], "reserved bytes must stay zero")
}

func TestBuildMevInstruction_NonFlashloanAccountLayout(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	wsol := solana.NewWallet().PublicKey()
	minor := solana.NewWallet().PublicKey()
	feeCollector := solana.NewWallet().PublicKey()
	mevProgram := solana.NewWallet().PublicKey()

	ix, err := BuildMevInstruction(context.Background(), InstructionParams{
		MevProgram:        mevProgram,
		Payer:             payer,
		WsolMint:          wsol,
		MinorMint:         minor,
		MinorTokenProgram: solana.TokenProgramID,
		FeeCollector:      feeCollector,
		UseFlashloan:      false,
		MinimumProfit:     1,
		ComputeUnitLimit:  1,
		Legs:              nil,
	})
	require.NoError(t, err)
	assert.True(t, ix.ProgramID().Equals(mevProgram))

	accounts := ix.Accounts()
	require.Len(t, accounts, 10, "7 fixed accounts + minor_mint/minor_token_program/minor_ata, no flashloan pair")
	assert.True(t, accounts[0].PublicKey.Equals(payer))
	assert.True(t, accounts[0].IsSigner)
	assert.True(t, accounts[1].PublicKey.Equals(wsol))
	assert.True(t, accounts[2].PublicKey.Equals(feeCollector))
	assert.True(t, accounts[4].PublicKey.Equals(solana.TokenProgramID))
	assert.True(t, accounts[5].PublicKey.Equals(solana.SystemProgramID))
	assert.True(t, accounts[6].PublicKey.Equals(associatedTokenProgramID))
	assert.True(t, accounts[7].PublicKey.Equals(minor))
	assert.True(t, accounts[8].PublicKey.Equals(solana.TokenProgramID))
}

func TestBuildMevInstruction_FlashloanAddsVaultPair(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	wsol := solana.NewWallet().PublicKey()
	minor := solana.NewWallet().PublicKey()
	feeCollector := solana.NewWallet().PublicKey()
	flashloanAcct := solana.NewWallet().PublicKey()
	mevProgram := solana.NewWallet().PublicKey()

	ix, err := BuildMevInstruction(context.Background(), InstructionParams{
		MevProgram:        mevProgram,
		Payer:             payer,
		WsolMint:          wsol,
		MinorMint:         minor,
		MinorTokenProgram: solana.TokenProgramID,
		FeeCollector:      feeCollector,
		UseFlashloan:      true,
		FlashloanAccount:  flashloanAcct,
		MinimumProfit:     1,
		ComputeUnitLimit:  1,
	})
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 12, "7 fixed + 2 flashloan + 3 minor-mint accounts")
	assert.True(t, accounts[7].PublicKey.Equals(flashloanAcct))

	expectedVault, _, err := DeriveVaultTokenAccount(mevProgram, wsol)
	require.NoError(t, err)
	assert.True(t, accounts[8].PublicKey.Equals(expectedVault))
}
