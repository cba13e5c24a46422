package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSplitConfigDeterministic(t *testing.T) {
	authority := testKey(t)
	mint := testKey(t)
	seed := testKey(t)

	a1, bump1, err := DeriveSplitConfig(authority, mint, seed)
	require.NoError(t, err)
	a2, bump2, err := DeriveSplitConfig(authority, mint, seed)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, bump1, bump2)

	// Any seed part change names a different account.
	other, _, err := DeriveSplitConfig(authority, mint, ZeroSeed)
	require.NoError(t, err)
	assert.NotEqual(t, a1, other)

	otherMint, _, err := DeriveSplitConfig(authority, testKey(t), seed)
	require.NoError(t, err)
	assert.NotEqual(t, a1, otherMint)
}

func TestDeriveProtocolConfigStable(t *testing.T) {
	a1, bump1, err := DeriveProtocolConfig()
	require.NoError(t, err)
	a2, bump2, err := DeriveProtocolConfig()
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, bump1, bump2)
	assert.False(t, a1.IsZero())
}

func TestDeriveVaultDistinctFromConfig(t *testing.T) {
	split, _, err := DeriveSplitConfig(testKey(t), testKey(t), ZeroSeed)
	require.NoError(t, err)
	mint := testKey(t)

	vault, err := DeriveVault(split, mint)
	require.NoError(t, err)
	assert.NotEqual(t, split, vault)

	// The vault is the canonical ATA for (split config, mint).
	ata, err := DeriveRecipientATA(split, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, vault)
}
