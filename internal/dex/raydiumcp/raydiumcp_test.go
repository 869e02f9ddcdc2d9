package raydiumcp

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePool(p *Pool) []byte {
	buf := make([]byte, 8)
	buf = append(buf, p.AmmConfig[:]...)
	buf = append(buf, p.PoolCreator[:]...)
	buf = append(buf, p.Token0Vault[:]...)
	buf = append(buf, p.Token1Vault[:]...)
	buf = append(buf, p.LpMint[:]...)
	buf = append(buf, p.Token0Mint[:]...)
	buf = append(buf, p.Token1Mint[:]...)
	buf = append(buf, p.Token0Program[:]...)
	buf = append(buf, p.Token1Program[:]...)
	buf = append(buf, p.ObservationKey[:]...)
	buf = append(buf, p.AuthBump, p.Status, p.LpMintDecimals, p.Mint0Decimals, p.Mint1Decimals, 0, 0, 0)
	lpSupply := make([]byte, 8)
	binary.LittleEndian.PutUint64(lpSupply, p.LpSupply)
	buf = append(buf, lpSupply...)
	return buf
}

func tokenAccountBytes(mint, owner chain.Addr, amount uint64) []byte {
	buf := make([]byte, 72)
	copy(buf[0:32], mint[:])
	copy(buf[32:64], owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], amount)
	return buf
}

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 4))
	require.Error(t, err)
}

func TestDecode_RoundTripsFields(t *testing.T) {
	want := &Pool{
		AmmConfig:     solana.NewWallet().PublicKey(),
		Token0Vault:   solana.NewWallet().PublicKey(),
		Token1Vault:   solana.NewWallet().PublicKey(),
		Token0Mint:    solana.NewWallet().PublicKey(),
		Token1Mint:    solana.NewWallet().PublicKey(),
		Mint0Decimals: 6,
		Mint1Decimals: 9,
		LpSupply:      12345,
	}
	data := encodePool(want)
	got, err := Decode(data)
	require.NoError(t, err)
	p := got.(*Pool)
	assert.True(t, p.Token0Mint.Equals(want.Token0Mint))
	assert.True(t, p.Token1Mint.Equals(want.Token1Mint))
	assert.EqualValues(t, 12345, p.LpSupply)
}

type fakeFetcher struct {
	accounts map[chain.Addr]chain.AccountState
}

func (f *fakeFetcher) GetAccount(_ context.Context, addr chain.Addr) (chain.AccountState, error) {
	return f.accounts[addr], nil
}

func TestMidPrice_UsesVaultReserves(t *testing.T) {
	p := &Pool{
		Token0Vault:   solana.NewWallet().PublicKey(),
		Token1Vault:   solana.NewWallet().PublicKey(),
		Token0Mint:    solana.NewWallet().PublicKey(),
		Token1Mint:    solana.NewWallet().PublicKey(),
		Mint0Decimals: 6,
		Mint1Decimals: 9,
	}
	fetcher := &fakeFetcher{accounts: map[chain.Addr]chain.AccountState{
		p.Token0Vault: {Data: tokenAccountBytes(p.Token0Mint, chain.Addr{}, 1_000_000)},
		p.Token1Vault: {Data: tokenAccountBytes(p.Token1Mint, chain.Addr{}, 2_000_000_000)},
	}}

	q, err := p.MidPrice(context.Background(), p.BaseMint(), p.QuoteMint(), fetcher)
	require.NoError(t, err)
	assert.NotNil(t, q.Price)
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

func TestBuildMevBotIxAccounts_RejectsWrongType(t *testing.T) {
	_, err := BuildMevBotIxAccounts(solana.NewWallet().PublicKey(), dummyPoolData{})
	assert.Error(t, err)
}

type dummyPoolData struct{}

func (dummyPoolData) BaseMint() chain.Addr   { return chain.Addr{} }
func (dummyPoolData) QuoteMint() chain.Addr  { return chain.Addr{} }
func (dummyPoolData) BaseVault() chain.Addr  { return chain.Addr{} }
func (dummyPoolData) QuoteVault() chain.Addr { return chain.Addr{} }
func (dummyPoolData) MidPrice(context.Context, chain.Addr, chain.Addr, dex.AccountFetcher) (dex.Quote, error) {
	return dex.Quote{}, nil
}
