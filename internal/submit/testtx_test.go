package submit

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"
)

// newTestTransaction builds a minimal, unsigned transaction with a single
// no-op-ish system transfer instruction — enough to exercise serialization
// without any RPC dependency.
func newTestTransaction(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	ix := system.NewTransferInstruction(1, payer, to).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}
