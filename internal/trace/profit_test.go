package trace

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/txbuilder"
)

func transferCheckedData(amount uint64, decimals uint8) []byte {
	data := make([]byte, 10)
	data[0] = splTransferCheckedDiscriminator
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals
	return data
}

func TestExtractBalanceDeltas_SingleOwnerNetProfit(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	wsol := solana.NewWallet().PublicKey()
	meme := solana.NewWallet().PublicKey()

	ownerWsolATA, _, err := txbuilder.FindAssociatedTokenAddress(owner, wsol, solana.TokenProgramID)
	require.NoError(t, err)
	ownerMemeATA, _, err := txbuilder.FindAssociatedTokenAddress(owner, meme, solana.TokenProgramID)
	require.NoError(t, err)
	poolWsolVault := solana.NewWallet().PublicKey()
	poolMemeVault := solana.NewWallet().PublicKey()

	ix := chain.Instruction{
		ProgramID: solana.NewWallet().PublicKey(),
		Accounts: []chain.AccountMeta{
			{PubKey: owner, IsSigner: true, IsWritable: true},
			{PubKey: poolWsolVault, IsSigner: false, IsWritable: true},
			{PubKey: poolMemeVault, IsSigner: false, IsWritable: true},
		},
	}

	// leg 1: owner sends 7.107544925 WSOL (in lamports) to the pool, receives meme coin.
	const sentWsol = 7_107_544_925
	const receivedMeme = 1_684_417_981_584_314
	// leg 2: owner sends the meme coin back, receives 7.343898162 WSOL.
	const receivedWsolBack = 7_343_898_162

	inner := chain.InnerInstructions{
		ParentIndex: 0,
		Instructions: []chain.Instruction{
			{
				ProgramID: solana.TokenProgramID,
				Accounts: []chain.AccountMeta{
					{PubKey: ownerWsolATA}, {PubKey: wsol}, {PubKey: poolWsolVault}, {PubKey: owner, IsSigner: true},
				},
				Data: transferCheckedData(sentWsol, 9),
			},
			{
				ProgramID: solana.TokenProgramID,
				Accounts: []chain.AccountMeta{
					{PubKey: poolMemeVault}, {PubKey: meme}, {PubKey: ownerMemeATA}, {PubKey: owner, IsSigner: true},
				},
				Data: transferCheckedData(receivedMeme, 6),
			},
			{
				ProgramID: solana.TokenProgramID,
				Accounts: []chain.AccountMeta{
					{PubKey: ownerMemeATA}, {PubKey: meme}, {PubKey: poolMemeVault}, {PubKey: owner, IsSigner: true},
				},
				Data: transferCheckedData(receivedMeme, 6),
			},
			{
				ProgramID: solana.TokenProgramID,
				Accounts: []chain.AccountMeta{
					{PubKey: poolWsolVault}, {PubKey: wsol}, {PubKey: ownerWsolATA}, {PubKey: owner, IsSigner: true},
				},
				Data: transferCheckedData(receivedWsolBack, 9),
			},
		},
	}

	result, err := ExtractBalanceDeltas(ix, inner)
	require.NoError(t, err)

	require.Contains(t, result, owner)
	var wsolDelta int64
	for _, stmt := range result[owner] {
		if stmt.Mint.Equals(wsol) {
			wsolDelta = stmt.Amount
		}
	}
	assert.Equal(t, int64(receivedWsolBack-sentWsol), wsolDelta)
	assert.Positive(t, wsolDelta, "net WSOL flow for the beneficial owner must be profit")
}

func TestExtractBalanceDeltas_IgnoresNonTokenProgramInstructions(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	inner := chain.InnerInstructions{
		Instructions: []chain.Instruction{
			{ProgramID: solana.SystemProgramID, Data: []byte{2, 0, 0, 0}},
		},
	}
	result, err := ExtractBalanceDeltas(ix, inner)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDecodeTransferChecked_RejectsShortData(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.TokenProgramID, Data: []byte{12, 1, 2}}
	_, ok := decodeTransferChecked(ix)
	assert.False(t, ok)
}
