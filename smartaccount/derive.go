package smartaccount

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// DeriveSmartAccount returns the settings-owned vault PDA that actually
// holds funds. accountIndex distinguishes multiple vaults under one
// settings account; index 0 is the default.
func DeriveSmartAccount(settings solana.PublicKey, accountIndex uint8) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			seedPrefix,
			settings.Bytes(),
			seedSmartAccount,
			{accountIndex},
		},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive smart account address: %w", err)
	}
	return addr, bump, nil
}
