package ingress

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// wireNotification is the standard Solana JSON-RPC subscription envelope
// (accountSubscribe / the teacher's transactionSubscribe), params.result.value
// left as a json.RawMessage until the caller knows which of the two shapes
// (accountValue vs txValue) to decode it as.
type wireNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// accountValue is params.result.value for an accountNotification.
type accountValue struct {
	Pubkey  string   `json:"pubkey"`
	Account struct {
		Lamports uint64   `json:"lamports"`
		Owner    string   `json:"owner"`
		Data     []string `json:"data"` // [base64Payload, "base64"]
	} `json:"account"`
}

func decodeAccountFrame(frame wireNotification) (chain.AccountUpdate, error) {
	var av accountValue
	if err := json.Unmarshal(frame.Params.Result.Value, &av); err != nil {
		return chain.AccountUpdate{}, fmt.Errorf("ingress: decoding account notification: %w", err)
	}
	pubkey, err := solana.PublicKeyFromBase58(av.Pubkey)
	if err != nil {
		return chain.AccountUpdate{}, fmt.Errorf("ingress: account pubkey: %w", err)
	}
	owner, err := solana.PublicKeyFromBase58(av.Account.Owner)
	if err != nil {
		return chain.AccountUpdate{}, fmt.Errorf("ingress: account owner: %w", err)
	}
	var data []byte
	if len(av.Account.Data) > 0 {
		data, err = base64.StdEncoding.DecodeString(av.Account.Data[0])
		if err != nil {
			return chain.AccountUpdate{}, fmt.Errorf("ingress: account data: %w", err)
		}
	}
	return chain.AccountUpdate{
		PubKey:   pubkey,
		Slot:     frame.Params.Result.Context.Slot,
		Lamports: av.Account.Lamports,
		Owner:    owner,
		Data:     data,
	}, nil
}

// txValue is params.result.value for a transactionNotification (Helius's
// "transactionSubscribe" shape, the one the teacher's stream/helius.go
// already subscribes to, here decoded instead of spot-parsed).
type txValue struct {
	Signature   string   `json:"signature"`
	Transaction []string `json:"transaction"` // [base64Payload, "base64"]
	Meta        struct {
		Err               interface{}          `json:"err"`
		Fee               uint64               `json:"fee"`
		ComputeUnitsUsed  uint64               `json:"computeUnitsConsumed"`
		PreBalances       []uint64             `json:"preBalances"`
		PostBalances      []uint64             `json:"postBalances"`
		PreTokenBalances  []wireTokenBalance   `json:"preTokenBalances"`
		PostTokenBalances []wireTokenBalance   `json:"postTokenBalances"`
		LogMessages       []string             `json:"logMessages"`
		LoadedAddresses   wireLoadedAddresses  `json:"loadedAddresses"`
		InnerInstructions []wireInnerIx        `json:"innerInstructions"`
	} `json:"meta"`
}

type wireTokenBalance struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner"`
	UITokenAmount struct {
		Amount   string  `json:"amount"`
		Decimals uint8   `json:"decimals"`
		UIAmount float64 `json:"uiAmount"`
	} `json:"uiTokenAmount"`
}

type wireLoadedAddresses struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

type wireInnerIx struct {
	Index        int `json:"index"`
	Instructions []struct {
		ProgramIDIndex int    `json:"programIdIndex"`
		Accounts       []int  `json:"accounts"`
		Data           string `json:"data"` // base58
	} `json:"instructions"`
}

func decodeTransactionFrame(frame wireNotification) (*chain.GrpcTxUpdate, error) {
	var tv txValue
	if err := json.Unmarshal(frame.Params.Result.Value, &tv); err != nil {
		return nil, fmt.Errorf("ingress: decoding transaction notification: %w", err)
	}
	if len(tv.Transaction) == 0 {
		return nil, fmt.Errorf("ingress: transaction notification missing payload")
	}
	raw, err := base64.StdEncoding.DecodeString(tv.Transaction[0])
	if err != nil {
		return nil, fmt.Errorf("ingress: transaction payload: %w", err)
	}

	var wireTx solana.Transaction
	if err := bin.NewBinDecoder(raw).Decode(&wireTx); err != nil {
		return nil, fmt.Errorf("ingress: decoding wire transaction: %w", err)
	}

	sig, err := solana.SignatureFromBase58(tv.Signature)
	if err != nil {
		return nil, fmt.Errorf("ingress: transaction signature: %w", err)
	}

	staticKeys := make([]chain.Addr, len(wireTx.Message.AccountKeys))
	copy(staticKeys, wireTx.Message.AccountKeys)

	instructions := make([]chain.RawInstruction, len(wireTx.Message.Instructions))
	for i, ci := range wireTx.Message.Instructions {
		accIdx := make([]int, len(ci.Accounts))
		for j, a := range ci.Accounts {
			accIdx[j] = int(a)
		}
		instructions[i] = chain.RawInstruction{
			ProgramIDIndex: int(ci.ProgramIDIndex),
			AccountIndexes: accIdx,
			Data:           ci.Data,
		}
	}

	loadedWritable := decodeAddrList(tv.Meta.LoadedAddresses.Writable)
	loadedReadonly := decodeAddrList(tv.Meta.LoadedAddresses.Readonly)

	var errStr *string
	if tv.Meta.Err != nil {
		s := fmt.Sprintf("%v", tv.Meta.Err)
		errStr = &s
	}

	meta := &chain.RawMeta{
		Fee:               tv.Meta.Fee,
		ComputeUnitsUsed:  tv.Meta.ComputeUnitsUsed,
		PreBalances:       tv.Meta.PreBalances,
		PostBalances:      tv.Meta.PostBalances,
		PreTokenBalances:  decodeTokenBalances(tv.Meta.PreTokenBalances),
		PostTokenBalances: decodeTokenBalances(tv.Meta.PostTokenBalances),
		InnerInstructions: decodeInnerInstructions(tv.Meta.InnerInstructions),
		LoadedWritable:    loadedWritable,
		LoadedReadonly:    loadedReadonly,
		LogMessages:       tv.Meta.LogMessages,
		Err:               errStr,
	}

	return &chain.GrpcTxUpdate{
		Encoding:  chain.EncodingRaw,
		Signature: sig,
		Slot:      frame.Params.Result.Context.Slot,
		Message: chain.RawMessage{
			Header: chain.RawHeader{
				NumRequiredSignatures:       wireTx.Message.Header.NumRequiredSignatures,
				NumReadonlySignedAccounts:   wireTx.Message.Header.NumReadonlySignedAccounts,
				NumReadonlyUnsignedAccounts: wireTx.Message.Header.NumReadonlyUnsignedAccounts,
			},
			StaticKeys:      staticKeys,
			RecentBlockhash: wireTx.Message.RecentBlockhash,
			Instructions:    instructions,
		},
		Meta: meta,
	}, nil
}

func decodeAddrList(in []string) []chain.Addr {
	out := make([]chain.Addr, 0, len(in))
	for _, s := range in {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out
}

func decodeTokenBalances(in []wireTokenBalance) []chain.TokenBalance {
	out := make([]chain.TokenBalance, 0, len(in))
	for _, tb := range in {
		mint, err := solana.PublicKeyFromBase58(tb.Mint)
		if err != nil {
			continue
		}
		out = append(out, chain.TokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         mint,
			Amount:       tb.UITokenAmount.Amount,
			Decimals:     tb.UITokenAmount.Decimals,
			UIAmount:     tb.UITokenAmount.UIAmount,
		})
	}
	return out
}

func decodeInnerInstructions(in []wireInnerIx) []chain.RawInnerInstructions {
	out := make([]chain.RawInnerInstructions, 0, len(in))
	for _, inner := range in {
		instructions := make([]chain.RawInstruction, 0, len(inner.Instructions))
		for _, ix := range inner.Instructions {
			data, err := base58.Decode(ix.Data)
			if err != nil {
				continue
			}
			instructions = append(instructions, chain.RawInstruction{
				ProgramIDIndex: ix.ProgramIDIndex,
				AccountIndexes: ix.Accounts,
				Data:           data,
			})
		}
		out = append(out, chain.RawInnerInstructions{Index: inner.Index, Instructions: instructions})
	}
	return out
}
