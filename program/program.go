// Package program contains the pure on-chain contract for the Cascade Splits
// program: program addresses, account discriminators and byte layouts, PDA
// derivation, and instruction builders. Nothing in this package performs I/O.
package program

import (
	solana "github.com/gagliardetto/solana-go"
)

// ProgramID is the deployed Cascade Splits program address.
var ProgramID = solana.MustPublicKeyFromBase58("SPL1T3rERcu6P6dyBiG7K8LUr21CssZqDAszwANzNMB")

// Recipient and fee limits enforced by the on-chain program.
const (
	MinRecipients = 1
	MaxRecipients = 20

	// ProtocolFeeBps is the implicit protocol fee: recipients sum to 9900
	// bps and the remaining 100 bps accrue to the protocol fee wallet.
	ProtocolFeeBps     = 100
	RequiredSplitTotal = 9900
)

// Account sizes. SplitConfig is a zero-copy repr(C) struct, so the size
// includes alignment padding (1 byte before the recipients array, 4 bytes
// before the unclaimed array).
const (
	SplitConfigSize    = 1792
	ProtocolConfigSize = 73

	// TokenAccountSize is the size of an SPL token account; the vault is a
	// plain ATA so rent estimation uses this plus SplitConfigSize.
	TokenAccountSize = 165
)

// Anchor account discriminators (first 8 bytes of sha256("account:<Name>")).
var (
	SplitConfigDiscriminator    = [8]byte{0x31, 0xc9, 0x32, 0xe4, 0x16, 0x8e, 0x0c, 0xde}
	ProtocolConfigDiscriminator = [8]byte{0xcf, 0x5b, 0xfa, 0x1c, 0x98, 0xb3, 0xd7, 0xd1}
)

// Anchor instruction discriminators (first 8 bytes of sha256("global:<name>")).
var (
	DiscriminatorInitializeProtocol        = [8]byte{0xbc, 0xe9, 0xfc, 0x6a, 0x86, 0x92, 0xca, 0x5b}
	DiscriminatorUpdateProtocolConfig      = [8]byte{0xc5, 0x61, 0x7b, 0x36, 0xdd, 0xa8, 0x0b, 0x87}
	DiscriminatorTransferProtocolAuthority = [8]byte{0x23, 0x4c, 0x24, 0x4d, 0x88, 0x70, 0x9e, 0xde}
	DiscriminatorAcceptProtocolAuthority   = [8]byte{0xed, 0x7a, 0x06, 0x27, 0x35, 0xca, 0x8d, 0x71}
	DiscriminatorCreateSplitConfig         = [8]byte{0x80, 0x2a, 0x3c, 0x6a, 0x04, 0xe9, 0x12, 0xbe}
	DiscriminatorExecuteSplit              = [8]byte{0x06, 0x2d, 0xab, 0x28, 0x31, 0x81, 0x17, 0x59}
	DiscriminatorUpdateSplitConfig         = [8]byte{0x2f, 0x67, 0x4a, 0xaa, 0x37, 0xfb, 0x82, 0x92}
	DiscriminatorCloseSplitConfig          = [8]byte{0xaa, 0xca, 0xfc, 0x5c, 0xc4, 0xa0, 0xf7, 0xe5}
)

// PDA seed prefixes.
var (
	seedSplitConfig    = []byte("split_config")
	seedProtocolConfig = []byte("protocol_config")
)

// Custom error codes emitted by the program (Anchor codes start at 6000).
const (
	ErrCodeInvalidRecipientCount       = 6000
	ErrCodeInvalidSplitTotal           = 6001
	ErrCodeDuplicateRecipient          = 6002
	ErrCodeZeroAddress                 = 6003
	ErrCodeZeroPercentage              = 6004
	ErrCodeRecipientATADoesNotExist    = 6005
	ErrCodeRecipientATAInvalid         = 6006
	ErrCodeRecipientATAWrongOwner      = 6007
	ErrCodeRecipientATAWrongMint       = 6008
	ErrCodeVaultNotEmpty               = 6009
	ErrCodeInvalidVault                = 6010
	ErrCodeInsufficientRemainingAccts  = 6011
	ErrCodeMathOverflow                = 6012
	ErrCodeMathUnderflow               = 6013
	ErrCodeInvalidProtocolFeeRecipient = 6014
	ErrCodeUnauthorized                = 6015
	ErrCodeAlreadyInitialized          = 6016
	ErrCodeUnclaimedNotEmpty           = 6017
	ErrCodeInvalidTokenProgram         = 6018
	ErrCodeNoPendingAuthorityTransfer  = 6019
)

// ZeroSeed is the sentinel unique id used when a caller creates a split
// without naming one. One split per (authority, mint) exists under it.
var ZeroSeed = solana.PublicKey{}
