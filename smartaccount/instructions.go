package smartaccount

import (
	"encoding/binary"

	solana "github.com/gagliardetto/solana-go"
)

// UseSpendingLimitParams names the accounts and payload of a
// use_spending_limit instruction. The executor signs; the program debits
// the spending limit and moves tokens from the smart account's vault ATA
// to the destination ATA.
type UseSpendingLimitParams struct {
	Settings       solana.PublicKey
	SpendingLimit  solana.PublicKey
	Executor       solana.PublicKey
	SmartAccount   solana.PublicKey
	Mint           solana.PublicKey
	VaultATA       solana.PublicKey
	DestinationATA solana.PublicKey
	Amount         uint64
	Decimals       uint8
}

// NewUseSpendingLimitInstruction builds the use_spending_limit instruction.
func NewUseSpendingLimitInstruction(p UseSpendingLimitParams) solana.Instruction {
	data := make([]byte, 0, 8+8+1)
	data = append(data, DiscriminatorUseSpendingLimit[:]...)
	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], p.Amount)
	data = append(data, amount[:]...)
	data = append(data, p.Decimals)

	accounts := solana.AccountMetaSlice{
		solana.Meta(p.Settings),
		solana.Meta(p.SpendingLimit).WRITE(),
		solana.Meta(p.Executor).SIGNER(),
		solana.Meta(p.SmartAccount).WRITE(),
		solana.Meta(p.Mint),
		solana.Meta(p.VaultATA).WRITE(),
		solana.Meta(p.DestinationATA).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}
