package txbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitter_BoundedBelow1000(t *testing.T) {
	for _, seed := range []uint64{0, 1, 999, 1000, 1001, 1_000_000_007} {
		j := Jitter(seed)
		assert.Less(t, j, uint32(1000))
		assert.Equal(t, uint32(seed%1000), j)
	}
}

func TestGasInstructions_ReturnsLimitThenPrice(t *testing.T) {
	ixs := GasInstructions(580_000, 42, 1_000)
	require.Len(t, ixs, 2)
	for _, ix := range ixs {
		require.NotNil(t, ix)
		assert.NotEmpty(t, ix.ProgramID().String())
	}
}
