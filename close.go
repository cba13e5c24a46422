package cascade

import (
	"context"
	"errors"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/program"
)

// CloseSplit destroys a split config and refunds its rent to the authority.
// The address may be the split config or its vault. Closing is only legal
// once the vault is drained and nothing is left unclaimed.
func (c *Client) CloseSplit(ctx context.Context, vaultOrConfig solana.PublicKey) (*CloseResult, error) {
	result := &CloseResult{Split: vaultOrConfig}

	cfg, err := c.resolveSplit(ctx, vaultOrConfig)
	switch {
	case errors.Is(err, errSplitNotFound):
		result.Status = StatusAlreadyClosed
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

	reason, message, err := c.updateBlockReason(ctx, cfg)
	if err != nil {
		freason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, freason, msg
		return result, nil
	}
	if reason != "" {
		result.Status, result.Reason, result.Message = StatusBlocked, reason, message
		return result, nil
	}

	ix := program.NewCloseSplitConfigInstruction(cfg.Address, cfg.Vault, cfg.Authority)
	sig, err := c.signAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		freason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, freason, msg
		result.Signature = sig
		return result, nil
	}
	result.Status = StatusClosed
	result.Signature = sig
	return result, nil
}
