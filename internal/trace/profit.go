package trace

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/txbuilder"
)

// splTransferCheckedDiscriminator is SPL Token's transfer_checked
// instruction index; data is [disc u8][amount u64 LE][decimals u8],
// accounts are [source, mint, destination, authority].
const splTransferCheckedDiscriminator = 12

// BalanceStatement is one mint's net flow for a beneficial owner: positive
// is inflow (profit), negative is outflow. Grounded on original_source's
// arb/program/mev_bot/ix.rs BalanceStatement.
type BalanceStatement struct {
	Mint   chain.Addr
	Amount int64
}

// tokenTransfer is a decoded transfer_checked instruction.
type tokenTransfer struct {
	source, destination, mint chain.Addr
	amount                    int64
}

func decodeTransferChecked(ix chain.Instruction) (tokenTransfer, bool) {
	if !ix.ProgramID.Equals(solana.TokenProgramID) && !ix.ProgramID.Equals(txbuilder.Token2022ProgramID) {
		return tokenTransfer{}, false
	}
	if len(ix.Data) < 10 || ix.Data[0] != splTransferCheckedDiscriminator {
		return tokenTransfer{}, false
	}
	if len(ix.Accounts) < 4 {
		return tokenTransfer{}, false
	}
	amount := int64(binary.LittleEndian.Uint64(ix.Data[1:9]))
	return tokenTransfer{
		source:      ix.Accounts[0].PubKey,
		mint:        ix.Accounts[1].PubKey,
		destination: ix.Accounts[2].PubKey,
		amount:      amount,
	}, true
}

// ExtractBalanceDeltas implements spec.md §8 scenario 5: aggregating token
// balance deltas per beneficial owner from the transfer_checked inner
// instructions of a completed MEV transaction. Grounded on
// original_source's is_mev_box_ix_profitable almost line-for-line.
func ExtractBalanceDeltas(ix chain.Instruction, inner chain.InnerInstructions) (map[chain.Addr][]BalanceStatement, error) {
	type ataBalance struct {
		mint   chain.Addr
		amount int64
	}
	ataBalances := make(map[chain.Addr]*ataBalance)

	for _, child := range inner.Instructions {
		transfer, ok := decodeTransferChecked(child)
		if !ok {
			continue
		}
		if b, exists := ataBalances[transfer.source]; exists {
			b.amount -= transfer.amount
		} else {
			ataBalances[transfer.source] = &ataBalance{mint: transfer.mint, amount: -transfer.amount}
		}
		if b, exists := ataBalances[transfer.destination]; exists {
			b.amount += transfer.amount
		} else {
			ataBalances[transfer.destination] = &ataBalance{mint: transfer.mint, amount: transfer.amount}
		}
	}

	potentialOwners := potentialOwners(ix)

	ownerBalances := make(map[chain.Addr]map[chain.Addr]int64)
	for ata, bal := range ataBalances {
		owner, ok := findATAOwner(ata, bal.mint, potentialOwners)
		if !ok {
			continue
		}
		if ownerBalances[owner] == nil {
			ownerBalances[owner] = make(map[chain.Addr]int64)
		}
		ownerBalances[owner][bal.mint] += bal.amount
	}

	out := make(map[chain.Addr][]BalanceStatement)
	for owner, mints := range ownerBalances {
		var stmts []BalanceStatement
		for mint, amount := range mints {
			if amount == 0 {
				continue
			}
			stmts = append(stmts, BalanceStatement{Mint: mint, Amount: amount})
		}
		if len(stmts) > 0 {
			out[owner] = stmts
		}
	}
	return out, nil
}

// potentialOwners lists the MEV instruction's accounts, signers first, as
// find_ata_owner's candidate set.
func potentialOwners(ix chain.Instruction) []chain.Addr {
	var signers, rest []chain.Addr
	seen := make(map[chain.Addr]bool)
	for _, acc := range ix.Accounts {
		if seen[acc.PubKey] {
			continue
		}
		seen[acc.PubKey] = true
		if acc.IsSigner {
			signers = append(signers, acc.PubKey)
		} else {
			rest = append(rest, acc.PubKey)
		}
	}
	return append(signers, rest...)
}

// findATAOwner tries every (owner, token_program) combination until one
// derives ata, mirroring original_source's find_ata_owner.
func findATAOwner(ata, mint chain.Addr, owners []chain.Addr) (chain.Addr, bool) {
	programs := []chain.Addr{solana.TokenProgramID, txbuilder.Token2022ProgramID}
	for _, owner := range owners {
		for _, program := range programs {
			derived, _, err := txbuilder.FindAssociatedTokenAddress(owner, mint, program)
			if err != nil {
				continue
			}
			if derived.Equals(ata) {
				return owner, true
			}
		}
	}
	return chain.Addr{}, false
}
