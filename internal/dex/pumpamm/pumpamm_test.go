package pumpamm

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenAccountBytes(amount uint64) []byte {
	buf := make([]byte, 72)
	binary.LittleEndian.PutUint64(buf[64:72], amount)
	return buf
}

type fakeFetcher struct{ accounts map[chain.Addr]chain.AccountState }

func (f *fakeFetcher) GetAccount(_ context.Context, addr chain.Addr) (chain.AccountState, error) {
	return f.accounts[addr], nil
}

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 5))
	require.Error(t, err)
}

func TestMidPrice_ConstantProduct(t *testing.T) {
	p := &Pool{
		BaseVaultAddr:  solana.NewWallet().PublicKey(),
		QuoteVaultAddr: solana.NewWallet().PublicKey(),
		BaseMintAddr:   solana.NewWallet().PublicKey(),
		QuoteMintAddr:  solana.NewWallet().PublicKey(),
	}
	fetcher := &fakeFetcher{accounts: map[chain.Addr]chain.AccountState{
		p.BaseVaultAddr:  {Data: tokenAccountBytes(1_000_000)},
		p.QuoteVaultAddr: {Data: tokenAccountBytes(4_000_000)},
	}}
	q, err := p.MidPrice(context.Background(), p.BaseMint(), p.QuoteMint(), fetcher)
	require.NoError(t, err)
	assert.Equal(t, "4", q.Price.RatString())
}

func TestExtractPoolFrom_RejectsWrongProgram(t *testing.T) {
	ix := chain.Instruction{ProgramID: solana.NewWallet().PublicKey()}
	_, err := ExtractPoolFrom(ix)
	assert.Error(t, err)
}
