package program

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// DeriveSplitConfig returns the split config PDA for an authority, mint and
// unique id. The derivation is deterministic: the same triple always names
// the same account, which is what makes ensure idempotent.
func DeriveSplitConfig(authority, mint, uniqueID solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			seedSplitConfig,
			authority.Bytes(),
			mint.Bytes(),
			uniqueID.Bytes(),
		},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive split config address: %w", err)
	}
	return addr, bump, nil
}

// DeriveProtocolConfig returns the protocol config singleton PDA.
func DeriveProtocolConfig() (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{seedProtocolConfig},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive protocol config address: %w", err)
	}
	return addr, bump, nil
}

// DeriveVault returns the vault for a split config: an associated token
// account owned by the split config PDA, not a custom PDA.
func DeriveVault(splitConfig, mint solana.PublicKey) (solana.PublicKey, error) {
	vault, _, err := solana.FindAssociatedTokenAddress(splitConfig, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive vault address: %w", err)
	}
	return vault, nil
}

// DeriveRecipientATA returns the canonical associated token account for a
// recipient wallet and mint.
func DeriveRecipientATA(recipient, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive recipient ATA: %w", err)
	}
	return ata, nil
}
