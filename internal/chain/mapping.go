package chain

import (
	"fmt"

	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// DeriveAccountMetas builds the fully materialized, flag-resolved account
// list for a message, implementing spec.md §4.1 literally: concatenate
// [static, loaded_writable, loaded_readonly], then derive is_signer/
// is_writable per index from the header counts and the two boundaries.
//
// Because Addr is a fixed [32]byte-backed type, "every account_keys entry is
// 32 bytes" is guaranteed by the type system rather than checked here.
func DeriveAccountMetas(header RawHeader, static, loadedWritable, loadedReadonly []Addr) ([]AccountMeta, error) {
	staticLen := len(static)
	numSig := int(header.NumRequiredSignatures)
	numReadonlySigned := int(header.NumReadonlySignedAccounts)
	numReadonlyUnsigned := int(header.NumReadonlyUnsignedAccounts)

	if numSig > staticLen || numReadonlySigned > numSig || numReadonlyUnsigned > staticLen-numSig {
		return nil, errs.New(errs.KindDecode, "chain.DeriveAccountMetas",
			fmt.Errorf("header counts (%d,%d,%d) inconsistent with static length %d",
				numSig, numReadonlySigned, numReadonlyUnsigned, staticLen))
	}

	all := make([]Addr, 0, staticLen+len(loadedWritable)+len(loadedReadonly))
	all = append(all, static...)
	all = append(all, loadedWritable...)
	all = append(all, loadedReadonly...)

	metas := make([]AccountMeta, len(all))
	writableSignerBoundary := numSig - numReadonlySigned
	writableStaticBoundary := staticLen - numReadonlyUnsigned
	loadedWritableBoundary := staticLen + len(loadedWritable)

	for i, key := range all {
		m := AccountMeta{PubKey: key}
		switch {
		case i < writableSignerBoundary:
			m.IsSigner = true
			m.IsWritable = true
		case i < numSig:
			m.IsSigner = true
			m.IsWritable = false
		case i < writableStaticBoundary:
			m.IsWritable = true
		case i < staticLen:
			m.IsWritable = false
		case i < loadedWritableBoundary:
			m.IsWritable = true
		default:
			m.IsWritable = false
		}
		metas[i] = m
	}
	return metas, nil
}

func resolveInstruction(accountKeys []AccountMeta, idx int, raw RawInstruction) (Instruction, error) {
	if raw.ProgramIDIndex < 0 || raw.ProgramIDIndex >= len(accountKeys) {
		return Instruction{}, errs.New(errs.KindDecode, "chain.resolveInstruction",
			fmt.Errorf("program_id_index %d out of range [0,%d)", raw.ProgramIDIndex, len(accountKeys)))
	}
	accounts := make([]AccountMeta, len(raw.AccountIndexes))
	for j, ai := range raw.AccountIndexes {
		if ai < 0 || ai >= len(accountKeys) {
			return Instruction{}, errs.New(errs.KindDecode, "chain.resolveInstruction",
				fmt.Errorf("account index %d out of range [0,%d)", ai, len(accountKeys)))
		}
		accounts[j] = accountKeys[ai]
	}
	return Instruction{
		ProgramID: accountKeys[raw.ProgramIDIndex].PubKey,
		Accounts:  accounts,
		Data:      raw.Data,
		Index:     idx,
	}, nil
}

func resolveMessage(raw RawMessage, meta *RawMeta) (Message, []InnerInstructions, error) {
	var loadedWritable, loadedReadonly []Addr
	if meta != nil {
		loadedWritable = meta.LoadedWritable
		loadedReadonly = meta.LoadedReadonly
	}

	accountKeys, err := DeriveAccountMetas(raw.Header, raw.StaticKeys, loadedWritable, loadedReadonly)
	if err != nil {
		return Message{}, nil, err
	}

	instructions := make([]Instruction, len(raw.Instructions))
	for i, ri := range raw.Instructions {
		ins, err := resolveInstruction(accountKeys, i, ri)
		if err != nil {
			return Message{}, nil, err
		}
		instructions[i] = ins
	}

	var inners []InnerInstructions
	if meta != nil {
		inners = make([]InnerInstructions, len(meta.InnerInstructions))
		for gi, rii := range meta.InnerInstructions {
			// Invariant I4: parent_index must equal the zero-based position
			// of the enclosing top-level instruction.
			if rii.Index < 0 || rii.Index >= len(instructions) {
				return Message{}, nil, errs.New(errs.KindDecode, "chain.resolveMessage",
					fmt.Errorf("inner_instructions parent_index %d out of range [0,%d)", rii.Index, len(instructions)))
			}
			children := make([]Instruction, len(rii.Instructions))
			for ci, raw := range rii.Instructions {
				ins, err := resolveInstruction(accountKeys, -1, raw)
				if err != nil {
					return Message{}, nil, err
				}
				children[ci] = ins
			}
			inners[gi] = InnerInstructions{ParentIndex: rii.Index, Instructions: children}
		}
	}

	return Message{
		AccountKeys:     accountKeys,
		RecentBlockhash: raw.RecentBlockhash,
		Instructions:    instructions,
	}, inners, nil
}

func buildMeta(meta *RawMeta, inners []InnerInstructions) *Meta {
	if meta == nil {
		return nil
	}
	return &Meta{
		Fee:               meta.Fee,
		ComputeUnitsUsed:  meta.ComputeUnitsUsed,
		PreBalances:       meta.PreBalances,
		PostBalances:      meta.PostBalances,
		PreTokenBalances:  meta.PreTokenBalances,
		PostTokenBalances: meta.PostTokenBalances,
		InnerInstructions: inners,
		LoadedWritable:    meta.LoadedWritable,
		LoadedReadonly:    meta.LoadedReadonly,
		LogMessages:       meta.LogMessages,
		Err:               meta.Err,
	}
}

// ToUnifiedFromGrpc maps a geyser-style streaming transaction update into the
// canonical Transaction, implementing `to_unified(grpc_tx_update)` (spec §4.1).
func ToUnifiedFromGrpc(update *GrpcTxUpdate) (Transaction, error) {
	if update.Encoding == EncodingFullyParsed {
		return Transaction{}, errs.ErrUnsupportedEncoding
	}
	message, inners, err := resolveMessage(update.Message, update.Meta)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Signature: update.Signature,
		Slot:      update.Slot,
		Message:   message,
		Meta:      buildMeta(update.Meta, inners),
	}, nil
}

// ToUnifiedFromRPC maps a `getTransaction` response into the canonical
// Transaction, implementing `to_unified(rpc_confirmed_tx)` (spec §4.1).
func ToUnifiedFromRPC(tx *RpcConfirmedTx) (Transaction, error) {
	if tx.Encoding == EncodingFullyParsed {
		return Transaction{}, errs.ErrUnsupportedEncoding
	}
	message, inners, err := resolveMessage(tx.Message, tx.Meta)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Signature: tx.Signature,
		Slot:      tx.Slot,
		Message:   message,
		Meta:      buildMeta(tx.Meta, inners),
	}, nil
}

// FromStreamUpdate maps a single account-update notification into the
// canonical AccountState, implementing `AccountState::from_stream_update`.
func FromStreamUpdate(update AccountUpdate) AccountState {
	return AccountState{
		PubKey:       update.PubKey,
		Slot:         update.Slot,
		Lamports:     update.Lamports,
		Owner:        update.Owner,
		Data:         update.Data,
		WriteVersion: update.WriteVersion,
	}
}
