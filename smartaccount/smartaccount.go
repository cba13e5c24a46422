// Package smartaccount contains the pure on-chain contract for the smart
// account program the facilitator settles against: PDA derivation for the
// settings-owned vault, the SpendingLimit account codec, and the
// use_spending_limit instruction builder. No I/O.
package smartaccount

import (
	solana "github.com/gagliardetto/solana-go"
)

// ProgramID is the deployed smart account program address.
var ProgramID = solana.MustPublicKeyFromBase58("SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf")

// Anchor discriminators.
var (
	SpendingLimitDiscriminator    = [8]byte{0x0a, 0xc9, 0x1b, 0xa0, 0xda, 0xc3, 0xde, 0x98}
	DiscriminatorUseSpendingLimit = [8]byte{0x29, 0xb3, 0x46, 0x05, 0xc2, 0x93, 0xef, 0x9e}
)

// PDA seed prefixes.
var (
	seedPrefix       = []byte("smart_account")
	seedSmartAccount = []byte("smart_account")
)

// Period identifies the reset cadence of a spending limit. Resets are
// enforced on-chain when the period boundary is crossed; clients never
// reset anything themselves.
type Period uint8

const (
	PeriodOneTime Period = iota
	PeriodDay
	PeriodWeek
	PeriodMonth
)
