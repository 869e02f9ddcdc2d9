package vertigo

import (
	"encoding/binary"
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 5))
	require.Error(t, err)
}

func TestDecode_FieldsAtFixedOffsets(t *testing.T) {
	data := make([]byte, minAccountLength)
	baseMint := solana.NewWallet().PublicKey()
	copy(data[offsetBaseMint:], baseMint[:])
	binary.LittleEndian.PutUint64(data[offsetBaseReserve:], 500)

	pd, err := Decode(data)
	require.NoError(t, err)
	p := pd.(*Pool)
	assert.True(t, p.BaseMintAddr.Equals(baseMint))
	assert.EqualValues(t, 500, p.BaseReserve)
}

func TestExtractPoolFrom_RejectsWrongProgram(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	_, err := ExtractPoolFrom(ix)
	assert.Error(t, err)
}
