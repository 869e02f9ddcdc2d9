package registry

import (
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/meteoradlmm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllDexTypesHaveADecoder(t *testing.T) {
	for _, dt := range []dex.DexType{
		dex.MeteoraDlmm, dex.MeteoraDammV2, dex.PumpAmm, dex.RaydiumV4,
		dex.RaydiumCp, dex.RaydiumClmm, dex.OrcaWhirlpool, dex.Solfi,
		dex.Vertigo, dex.Pump,
	} {
		assert.Truef(t, Supported(dt), "%s has no registered decoder", dt)
	}
}

func TestUnknownIsNotSupported(t *testing.T) {
	assert.False(t, Supported(dex.Unknown))
}

func TestExtractPool_DispatchesByOwnerProgram(t *testing.T) {
	poolAddr := chain.Addr{}
	ix := chain.Instruction{
		ProgramID: meteoradlmm.ProgramID,
		Accounts:  []chain.AccountMeta{{PubKey: poolAddr}},
	}
	dt, addr, err := ExtractPool(ix)
	require.NoError(t, err)
	assert.Equal(t, dex.MeteoraDlmm, dt)
	assert.True(t, addr.Equals(poolAddr))
}

func TestExtractPool_RejectsUnknownProgram(t *testing.T) {
	_, _, err := ExtractPool(chain.Instruction{})
	assert.Error(t, err)
}
