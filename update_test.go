package cascade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBlockedVaultNotEmptyNoSubmission(t *testing.T) {
	ledger, wallet, cfg, recipientA, _ := testSplit(t, 2_000_000)
	ledger.decimals[cfg.Mint] = 6
	newRecipient := testKey(t)
	installATAs(t, ledger, cfg.Mint, newRecipient)
	client := newTestClient(t, ledger, wallet)

	res, err := client.UpdateSplit(context.Background(), cfg.Address, []Recipient{
		{Address: recipientA, Share: 50},
		{Address: newRecipient, Share: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, ReasonVaultNotEmpty, res.Reason)
	assert.Contains(t, res.Message, "2")
	assert.Zero(t, wallet.sends)
}

func TestUpdateATAGate(t *testing.T) {
	ledger, wallet, cfg, recipientA, _ := testSplit(t, 0)
	missing := testKey(t)
	client := newTestClient(t, ledger, wallet)

	res, err := client.UpdateSplit(context.Background(), cfg.Address, []Recipient{
		{Address: recipientA, Share: 50},
		{Address: missing, Share: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, ReasonRecipientATAsMissing, res.Reason)
	assert.Contains(t, res.Message, missing.String())
	assert.Zero(t, wallet.sends)
}

func TestUpdateByVaultAddress(t *testing.T) {
	ledger, wallet, cfg, recipientA, recipientB := testSplit(t, 0)
	client := newTestClient(t, ledger, wallet)

	// The vault resolves to its config; identical recipients are a no-op.
	res, err := client.UpdateSplit(context.Background(), cfg.Vault, []Recipient{
		{Address: recipientB, Share: 30},
		{Address: recipientA, Share: 70},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNoChange, res.Status)
	assert.Equal(t, cfg.Address, res.Split)
	assert.Zero(t, wallet.sends)
}

func TestUpdateSubmitsWhenAllowed(t *testing.T) {
	ledger, wallet, cfg, recipientA, _ := testSplit(t, 0)
	newRecipient := testKey(t)
	installATAs(t, ledger, cfg.Mint, newRecipient)
	client := newTestClient(t, ledger, wallet)

	res, err := client.UpdateSplit(context.Background(), cfg.Address, []Recipient{
		{Address: recipientA, Share: 90},
		{Address: newRecipient, Share: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Equal(t, 1, wallet.sends)
	assert.False(t, res.Signature.IsZero())
}

func TestUpdateMissingAndForeignAccounts(t *testing.T) {
	ledger, wallet, _, recipientA, recipientB := testSplit(t, 0)
	client := newTestClient(t, ledger, wallet)
	recipients := []Recipient{
		{Address: recipientA, Share: 70},
		{Address: recipientB, Share: 30},
	}

	res, err := client.UpdateSplit(context.Background(), testKey(t), recipients)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ReasonNotFound, res.Reason)

	// An existing account that is neither a config nor a vault.
	random := testKey(t)
	ledger.accounts[random] = []byte{1, 2, 3}
	res, err = client.UpdateSplit(context.Background(), random, recipients)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ReasonNotASplit, res.Reason)
	assert.Zero(t, wallet.sends)
}
