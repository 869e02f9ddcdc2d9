package chain

import "github.com/gagliardetto/solana-go"

// RawHeader is the three counters a Solana message header carries. They are
// the only inputs DeriveAccountMetas needs to turn a flat account list into
// per-index signer/writable flags.
type RawHeader struct {
	NumRequiredSignatures        uint8
	NumReadonlySignedAccounts    uint8
	NumReadonlyUnsignedAccounts  uint8
}

// RawInstruction is a top-level instruction as it arrives over the wire:
// indices into the not-yet-materialized account list, not resolved
// AccountMeta values yet.
type RawInstruction struct {
	ProgramIDIndex int
	AccountIndexes []int
	Data           []byte
}

// RawInnerInstructions mirrors RawInstruction but scoped under a parent.
type RawInnerInstructions struct {
	Index        int // parent top-level instruction index
	Instructions []RawInstruction
}

// RawMessage is the pre-materialization message shape shared by both the
// streaming (geyser-style) and RPC (getTransaction) encodings.
type RawMessage struct {
	Header          RawHeader
	StaticKeys      []Addr
	RecentBlockhash solana.Hash
	Instructions    []RawInstruction
}

// RawMeta is the subset of transaction metadata the mapper needs, already
// normalized away from either wire encoding's field names.
type RawMeta struct {
	Fee                uint64
	ComputeUnitsUsed    uint64
	PreBalances         []uint64
	PostBalances        []uint64
	PreTokenBalances    []TokenBalance
	PostTokenBalances   []TokenBalance
	InnerInstructions   []RawInnerInstructions
	LoadedWritable      []Addr
	LoadedReadonly      []Addr
	LogMessages         []string
	Err                 *string
}

// Encoding distinguishes the wire shapes ToUnified accepts. FullyParsed is
// never supported — see spec.md §9 open question (b) and errs.ErrUnsupportedEncoding.
type Encoding int

const (
	EncodingRaw Encoding = iota
	EncodingFullyParsed
)

// GrpcTxUpdate is the shape a geyser-style gRPC transaction-update notification
// takes once its protobuf envelope has been stripped down to plain Go values.
type GrpcTxUpdate struct {
	Encoding  Encoding
	Signature solana.Signature
	Slot      uint64
	Message   RawMessage
	Meta      *RawMeta
}

// RpcConfirmedTx is the shape a `getTransaction` response takes once decoded
// into plain Go values (mirrors the teacher's internal/rpc.TransactionResponse
// tree, generalized from string-keyed JSON into the RawMessage/RawMeta model).
type RpcConfirmedTx struct {
	Encoding  Encoding
	Signature solana.Signature
	Slot      uint64
	Message   RawMessage
	Meta      *RawMeta
}

// AccountUpdate is a single account-state notification as delivered by the
// stream, before it is turned into the canonical AccountState.
type AccountUpdate struct {
	PubKey       Addr
	Slot         uint64
	Lamports     uint64
	Owner        Addr
	Data         []byte
	WriteVersion uint64
}
