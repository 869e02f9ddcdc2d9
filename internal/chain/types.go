// Package chain holds the canonical transaction and account-state model the
// rest of the pipeline consumes. Everything upstream of the decoder registry
// (C2) and the caches (C3) is mapped into these types exactly once, at the
// stream/RPC boundary, so downstream code never has to branch on source
// encoding again.
package chain

import (
	"github.com/gagliardetto/solana-go"
)

// Addr is a 32-byte Solana public key. It wraps solana.PublicKey so the rest
// of the tree gets comparability and a String()/base58 round-trip for free,
// matching the way the teacher's wallet package passes solana.PublicKey
// around rather than raw byte slices.
type Addr = solana.PublicKey

// AccountMeta mirrors an on-chain account reference plus the flags derived
// from the message header (see DeriveAccountMetas).
type AccountMeta struct {
	PubKey     Addr
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single top-level or inner instruction, already resolved
// against the materialized account_keys list (no more raw indices once a
// Transaction has been built through ToUnified).
type Instruction struct {
	ProgramID Addr
	Accounts  []AccountMeta
	Data      []byte
	// Index is the zero-based position among top-level instructions; -1 for
	// instructions that only ever appear as InnerInstructions entries.
	Index int
}

// InnerInstructions groups the child instructions produced while a top-level
// instruction executed.
type InnerInstructions struct {
	ParentIndex  int
	Instructions []Instruction
}

// TokenBalance is a pre/post SPL token balance snapshot for one account index.
type TokenBalance struct {
	AccountIndex int
	Mint         Addr
	Owner        *Addr
	ProgramID    *Addr
	Amount       string
	Decimals     uint8
	UIAmount     float64
}

// Meta carries everything about execution that isn't part of the signed
// message itself.
type Meta struct {
	Fee              uint64
	ComputeUnitsUsed uint64
	PreBalances      []uint64
	PostBalances     []uint64
	PreTokenBalances []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructions
	LoadedWritable   []Addr
	LoadedReadonly   []Addr
	LogMessages      []string
	Err              *string
}

// Message is the signed portion of a transaction: the fully materialized
// account list (static + loaded-writable + loaded-readonly, in that order,
// per spec §4.1) plus the instruction list resolved against it.
type Message struct {
	AccountKeys     []AccountMeta
	RecentBlockhash solana.Hash
	Instructions    []Instruction
}

// Transaction is the canonical, source-agnostic representation every
// processor downstream of C1 operates on.
type Transaction struct {
	Signature solana.Signature
	Slot      uint64
	Message   Message
	Meta      *Meta
}

// AccountState is a single account-update observation from the stream, plus
// enough ordering information (slot, write_version) to resolve races in the
// caches (C3) per invariant I5.
type AccountState struct {
	PubKey       Addr
	Slot         uint64
	Lamports     uint64
	Owner        Addr
	Data         []byte
	WriteVersion uint64
}

// Newer reports whether s is a strictly later observation than other for
// the same account, per invariant I5: non-decreasing (slot, write_version).
func (s AccountState) Newer(other AccountState) bool {
	if s.Slot != other.Slot {
		return s.Slot > other.Slot
	}
	return s.WriteVersion > other.WriteVersion
}
