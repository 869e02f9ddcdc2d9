package txbuilder

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/dex"
	"github.com/aman-zulfiqar/arbbot/internal/dex/registry"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// mevInstructionDiscriminator is the fixed leading byte of every MEV program
// invocation, per spec.md §4.7 / scenario 4.
const mevInstructionDiscriminator = 28

// InstructionData encodes the 17-byte little-endian MEV instruction payload:
// [u8 discriminator=28][u64 minimum_profit][u32 compute_unit_limit]
// [u8 no_failure_mode][u16 reserved=0][u8 use_flashloan].
func InstructionData(minimumProfit uint64, computeUnitLimit uint32, noFailureMode, useFlashloan bool) []byte {
	data := make([]byte, 17)
	data[0] = mevInstructionDiscriminator
	binary.LittleEndian.PutUint64(data[1:9], minimumProfit)
	binary.LittleEndian.PutUint32(data[9:13], computeUnitLimit)
	if noFailureMode {
		data[13] = 1
	}
	// data[14:16] stays zero: reserved.
	if useFlashloan {
		data[16] = 1
	}
	return data
}

// Leg is one resolved pool leg of the cycle: its address, decoded data, and
// the family it belongs to, enough to dispatch registry.BuildMevBotIxAccounts.
type Leg struct {
	Addr    chain.Addr
	DexType dex.DexType
	Data    dex.PoolData
}

// InstructionParams carries everything BuildMevInstruction needs beyond the
// resolved legs: the fixed program/account wiring spec.md §4.7 describes.
type InstructionParams struct {
	MevProgram        chain.Addr
	Payer             chain.Addr
	WsolMint          chain.Addr
	MinorMint         chain.Addr
	MinorTokenProgram chain.Addr
	FeeCollector      chain.Addr
	UseFlashloan      bool
	FlashloanAccount  chain.Addr
	MinimumProfit     uint64
	ComputeUnitLimit  uint32
	NoFailureMode     bool
	Legs              []Leg // buy leg first, then sell leg, per spec.md §4.6/§4.7
}

// BuildMevInstruction assembles the single MEV program invocation: the fixed
// account prefix, the optional flash-loan pair, the minor-mint accounts, and
// then each leg's family-specific sub-list in order — spec.md §4.7 step 3.
func BuildMevInstruction(ctx context.Context, p InstructionParams) (solana.Instruction, error) {
	wsolATA, _, err := FindAssociatedTokenAddress(p.Payer, p.WsolMint, solana.TokenProgramID)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "txbuilder.BuildMevInstruction", fmt.Errorf("derive wsol ata: %w", err))
	}
	minorATA, _, err := FindAssociatedTokenAddress(p.Payer, p.MinorMint, p.MinorTokenProgram)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "txbuilder.BuildMevInstruction", fmt.Errorf("derive minor ata: %w", err))
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: p.Payer, IsSigner: true, IsWritable: true},
		{PublicKey: p.WsolMint, IsSigner: false, IsWritable: false},
		{PublicKey: p.FeeCollector, IsSigner: false, IsWritable: true},
		{PublicKey: wsolATA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: associatedTokenProgramID, IsSigner: false, IsWritable: false},
	}

	if p.UseFlashloan {
		vault, _, err := DeriveVaultTokenAccount(p.MevProgram, p.WsolMint)
		if err != nil {
			return nil, errs.New(errs.KindFatal, "txbuilder.BuildMevInstruction", fmt.Errorf("derive vault token account: %w", err))
		}
		accounts = append(accounts,
			&solana.AccountMeta{PublicKey: p.FlashloanAccount, IsSigner: false, IsWritable: false},
			&solana.AccountMeta{PublicKey: vault, IsSigner: false, IsWritable: true},
		)
	}

	accounts = append(accounts,
		&solana.AccountMeta{PublicKey: p.MinorMint, IsSigner: false, IsWritable: false},
		&solana.AccountMeta{PublicKey: p.MinorTokenProgram, IsSigner: false, IsWritable: false},
		&solana.AccountMeta{PublicKey: minorATA, IsSigner: false, IsWritable: true},
	)

	for _, leg := range p.Legs {
		legAccounts, err := registry.BuildMevBotIxAccounts(leg.DexType, p.Payer, leg.Data)
		if err != nil {
			return nil, errs.New(errs.KindFatal, "txbuilder.BuildMevInstruction", fmt.Errorf("leg %s: %w", leg.Addr, err))
		}
		for _, am := range legAccounts {
			accounts = append(accounts, &solana.AccountMeta{PublicKey: am.PubKey, IsSigner: am.IsSigner, IsWritable: am.IsWritable})
		}
	}

	data := InstructionData(p.MinimumProfit, p.ComputeUnitLimit, p.NoFailureMode, p.UseFlashloan)
	return solana.NewInstruction(p.MevProgram, accounts, data), nil
}
