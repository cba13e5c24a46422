package chain

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// TxOptions shape the compute budget of an assembled transaction. Zero
// values leave the corresponding instruction out.
type TxOptions struct {
	// ComputeUnitPrice is the priority fee in micro-lamports per compute
	// unit.
	ComputeUnitPrice uint64
	// ComputeUnitLimit caps the compute units the transaction may use.
	ComputeUnitLimit uint32
}

// BuildTransaction assembles an unsigned transaction with fee payer and
// blockhash set. Compute budget instructions, when requested, are
// prepended so they take effect for the whole transaction.
func BuildTransaction(payer solana.PublicKey, blockhash solana.Hash, instructions []solana.Instruction, opts TxOptions) (*solana.Transaction, error) {
	builder := solana.NewTransactionBuilder()

	if opts.ComputeUnitLimit > 0 {
		ix, err := computebudget.NewSetComputeUnitLimitInstruction(opts.ComputeUnitLimit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("failed to build compute unit limit instruction: %w", err)
		}
		builder.AddInstruction(ix)
	}
	if opts.ComputeUnitPrice > 0 {
		ix, err := computebudget.NewSetComputeUnitPriceInstruction(opts.ComputeUnitPrice).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("failed to build compute unit price instruction: %w", err)
		}
		builder.AddInstruction(ix)
	}
	for _, ix := range instructions {
		builder.AddInstruction(ix)
	}

	builder.SetFeePayer(payer)
	builder.SetRecentBlockHash(blockhash)

	tx, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}
