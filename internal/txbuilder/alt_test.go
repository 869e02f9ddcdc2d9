package txbuilder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func TestToTableMap_OneEntryPerALT(t *testing.T) {
	k1, k2 := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	a1, a2 := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	m := ToTableMap([]ALT{
		{Key: k1, Addresses: solana.PublicKeySlice{a1}},
		{Key: k2, Addresses: solana.PublicKeySlice{a2}},
	})

	assert.Len(t, m, 2)
	assert.Equal(t, solana.PublicKeySlice{a1}, m[k1])
	assert.Equal(t, solana.PublicKeySlice{a2}, m[k2])
}
