package txbuilder

import (
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// Jitter reproduces the small random nudge spec.md §4.7 step 1 adds to the
// compute-unit limit: seed % 1000, so repeated builds within the same
// process don't submit byte-identical compute-budget instructions.
func Jitter(seed uint64) uint32 {
	return uint32(seed % 1000)
}

// GasInstructions builds the two leading compute-budget instructions every
// MEV transaction carries: a unit-limit bump (with jitter applied) and a
// unit-price in micro-lamports.
func GasInstructions(unitLimit uint32, jitter uint32, unitPriceMicroLamports uint64) []solana.Instruction {
	return []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(unitLimit + jitter).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(unitPriceMicroLamports).Build(),
	}
}
