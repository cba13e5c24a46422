package cascade

import (
	"context"
	"errors"

	solana "github.com/gagliardetto/solana-go"
)

// UpdateSplit replaces the recipient list of an existing split. The address
// may be the split config or its vault. Unlike EnsureSplit it never
// creates: a missing account is a failure, not a create signal.
func (c *Client) UpdateSplit(ctx context.Context, vaultOrConfig solana.PublicKey, recipients []Recipient) (*UpdateResult, error) {
	result := &UpdateResult{Split: vaultOrConfig}

	desired, err := normalizeRecipients(recipients)
	if err != nil {
		result.Status, result.Reason, result.Message = StatusFailed, ReasonInvalidRecipients, err.Error()
		return result, nil
	}

	cfg, err := c.resolveSplit(ctx, vaultOrConfig)
	switch {
	case errors.Is(err, errSplitNotFound):
		result.Status, result.Reason, result.Message = StatusFailed, ReasonNotFound, "no split config at "+vaultOrConfig.String()
		return result, nil
	case errors.Is(err, errNotASplit):
		result.Status, result.Reason, result.Message = StatusFailed, ReasonNotASplit, vaultOrConfig.String()+" is not a split config or vault"
		return result, nil
	case err != nil:
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	result.Split = cfg.Address

	if !cfg.Authority.Equals(c.wallet.Address()) {
		result.Status = StatusBlocked
		result.Reason = ReasonNotAuthority
		result.Message = "split config is owned by " + cfg.Authority.String()
		return result, nil
	}

	atas, missingMsg, err := c.checkRecipientATAs(ctx, cfg.Mint, desired)
	if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	if missingMsg != "" {
		result.Status, result.Reason, result.Message = StatusBlocked, ReasonRecipientATAsMissing, missingMsg
		return result, nil
	}

	if sameRecipientSet(desired, cfg.Recipients) {
		result.Status = StatusNoChange
		return result, nil
	}

	ensureShaped := &EnsureResult{Split: cfg.Address, Vault: cfg.Vault}
	ensureShaped, err = c.updateExisting(ctx, cfg, desired, atas, ensureShaped)
	if err != nil {
		return nil, err
	}
	result.Status = ensureShaped.Status
	result.Signature = ensureShaped.Signature
	result.Reason = ensureShaped.Reason
	result.Message = ensureShaped.Message
	return result, nil
}
