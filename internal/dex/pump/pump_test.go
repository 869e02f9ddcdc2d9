package pump

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCurveBytes(virtualToken, virtualSol uint64, complete bool) []byte {
	buf := make([]byte, minAccountLength)
	binary.LittleEndian.PutUint64(buf[offsetVirtualTokenReserves:], virtualToken)
	binary.LittleEndian.PutUint64(buf[offsetVirtualSolReserves:], virtualSol)
	if complete {
		buf[offsetComplete] = 1
	}
	return buf
}

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 5))
	require.Error(t, err)
}

func TestMidPrice_UsesVirtualReserves(t *testing.T) {
	pd, err := Decode(sampleCurveBytes(1_000_000, 3_000_000, false))
	require.NoError(t, err)
	p := pd.(*Pool)

	q, err := p.MidPrice(context.Background(), p.BaseMint(), p.QuoteMint(), nil)
	require.NoError(t, err)
	assert.NotNil(t, q.Price)
}

func TestMidPrice_RejectsCompletedCurve(t *testing.T) {
	pd, err := Decode(sampleCurveBytes(1_000_000, 3_000_000, true))
	require.NoError(t, err)
	p := pd.(*Pool)

	_, err = p.MidPrice(context.Background(), p.BaseMint(), p.QuoteMint(), nil)
	assert.Error(t, err)
}

func TestExtractPoolFrom_RejectsWrongProgram(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	_, err := ExtractPoolFrom(ix)
	assert.Error(t, err)
}
