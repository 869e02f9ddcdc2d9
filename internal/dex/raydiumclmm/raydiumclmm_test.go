package raydiumclmm

import (
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 4))
	require.Error(t, err)
}

func TestPrice_ZeroSqrtPriceIsZero(t *testing.T) {
	p := &Pool{MintDecimals0: 6, MintDecimals1: 9}
	price := p.Price()
	assert.Equal(t, int64(0), price.Sign())
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

func TestExtractPoolFrom_RejectsWrongProgram(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	_, err := ExtractPoolFrom(ix)
	assert.Error(t, err)
}
