package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	handle string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	f.calls++
	return f.handle, f.err
}

func TestRouter_ReturnsOnFirstSuccess(t *testing.T) {
	failing := &fakeProvider{name: "a", err: errors.New("down")}
	working := &fakeProvider{name: "b", handle: "sig"}
	never := &fakeProvider{name: "c", handle: "sig2"}

	r := NewRouter(nil, failing, working, never)
	err := r.Submit(context.Background(), newTestTransaction(t))
	require.NoError(t, err)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, 0, never.calls, "router should stop after the first success")
}

func TestRouter_ErrorsWhenAllProvidersFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("down-a")}
	b := &fakeProvider{name: "b", err: errors.New("down-b")}

	r := NewRouter(nil, a, b)
	err := r.Submit(context.Background(), newTestTransaction(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down-b")
}

func TestRouter_ErrorsWithNoProviders(t *testing.T) {
	r := NewRouter(nil)
	err := r.Submit(context.Background(), newTestTransaction(t))
	require.Error(t, err)
}
