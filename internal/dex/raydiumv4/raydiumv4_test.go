package raydiumv4

import (
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.Error(t, err)
}

func TestDecode_FieldsAtFixedOffsets(t *testing.T) {
	data := make([]byte, minAccountLength)
	coinMint := solana.NewWallet().PublicKey()
	copy(data[offsetCoinMint:], coinMint[:])
	data[offsetCoinDecimals] = 6

	pd, err := Decode(data)
	require.NoError(t, err)
	p := pd.(*Pool)
	assert.True(t, p.CoinMint.Equals(coinMint))
	assert.EqualValues(t, 6, p.CoinDecimals)
}

func TestExtractPoolFrom_RejectsWrongProgram(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	_, err := ExtractPoolFrom(ix)
	assert.Error(t, err)
}

func TestExtractPoolFrom_FixedIndex(t *testing.T) {
	poolAddr := solana.NewWallet().PublicKey()
	accounts := make([]chain.AccountMeta, swapIxPoolAccountIndex+1)
	accounts[swapIxPoolAccountIndex] = chain.AccountMeta{PubKey: poolAddr}
	ix := chain.Instruction{ProgramID: ProgramID, Accounts: accounts}
	got, err := ExtractPoolFrom(ix)
	require.NoError(t, err)
	assert.True(t, got.Equals(poolAddr))
}
