package orchestrator

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/arbbot/internal/config"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	addr := func() string { return solana.NewWallet().PublicKey().String() }
	return &config.Config{
		RPCUrl:               "http://127.0.0.1:0",
		RedisAddr:            "127.0.0.1:0",
		DesiredMint:          addr(),
		SpreadFloor:          "1/10000",
		MevProgramID:         addr(),
		WsolMint:             addr(),
		FlashloanFeeAccount:  addr(),
		NonFlashloanAccounts: [3]string{addr(), addr(), addr()},
	}
}

func TestNew_RejectsInvalidDesiredMint(t *testing.T) {
	cfg := validConfig(t)
	cfg.DesiredMint = "not-a-pubkey"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindFatal))
}

func TestNew_RejectsInvalidMevProgram(t *testing.T) {
	cfg := validConfig(t)
	cfg.MevProgramID = "not-a-pubkey"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindFatal))
}

func TestNew_RejectsInvalidSpreadFloor(t *testing.T) {
	cfg := validConfig(t)
	cfg.SpreadFloor = "not-a-rational"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindFatal))
}

func TestNew_RejectsMissingWalletKey(t *testing.T) {
	t.Setenv("WALLET_PRIVATE_KEY", "")
	cfg := validConfig(t)

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindFatal))
}
