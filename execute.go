package cascade

import (
	"context"
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
)

// ExecuteOptions tune ExecuteSplit.
type ExecuteOptions struct {
	// MinBalance skips execution when the vault holds less than this many
	// base units. Carried-over unclaimed amounts are distributed regardless.
	MinBalance uint64
}

// ExecuteSplit distributes a split's vault balance to its recipients.
// Execution is permissionless: the wallet pays fees but need not be the
// authority. Expected non-events (no such account, not a split, nothing to
// distribute) report Skipped, not failures.
func (c *Client) ExecuteSplit(ctx context.Context, vaultOrConfig solana.PublicKey, opts ExecuteOptions) (*ExecuteResult, error) {
	result := &ExecuteResult{Split: vaultOrConfig}

	cfg, err := c.resolveSplit(ctx, vaultOrConfig)
	switch {
	case errors.Is(err, errSplitNotFound):
		result.Status, result.Reason = StatusSkipped, ReasonNotFound
		return result, nil
	case errors.Is(err, errNotASplit):
		result.Status, result.Reason = StatusSkipped, ReasonNotASplit
		return result, nil
	case err != nil:
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	result.Split = cfg.Address

	balance, err := c.ledger.GetTokenBalance(ctx, cfg.Vault)
	if err != nil && !errors.Is(err, chain.ErrAccountNotFound) {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	unclaimed, _ := cfg.TotalUnclaimed()
	if balance+unclaimed == 0 {
		result.Status, result.Reason = StatusSkipped, ReasonNoPendingFunds
		return result, nil
	}
	if balance < opts.MinBalance && unclaimed == 0 {
		result.Status = StatusSkipped
		result.Reason = ReasonBelowThreshold
		result.Message = fmt.Sprintf("vault balance %d is below threshold %d", balance, opts.MinBalance)
		return result, nil
	}

	// Two-attempt loop: one retry, and only for the stale-fee-recipient
	// program error. The protocol config cache is invalidated exactly once.
	invalidated := false
	for {
		sig, err := c.executeOnce(ctx, cfg)
		if err == nil {
			result.Status = StatusExecuted
			result.Signature = sig
			return result, nil
		}
		if code, ok := ProgramErrorCode(err); ok && code == program.ErrCodeInvalidProtocolFeeRecipient && !invalidated {
			c.protocolCache.Invalidate()
			invalidated = true
			continue
		}
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		result.Signature = sig
		return result, nil
	}
}

func (c *Client) executeOnce(ctx context.Context, cfg *program.SplitConfig) (solana.Signature, error) {
	protocol, err := c.getProtocolConfig(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	atas := make([]solana.PublicKey, len(cfg.Recipients))
	for i, r := range cfg.Recipients {
		ata, derr := program.DeriveRecipientATA(r.Address, cfg.Mint)
		if derr != nil {
			return solana.Signature{}, derr
		}
		atas[i] = ata
	}
	protocolATA, err := program.DeriveRecipientATA(protocol.FeeWallet, cfg.Mint)
	if err != nil {
		return solana.Signature{}, err
	}

	ix := program.NewExecuteSplitInstruction(program.ExecuteSplitParams{
		SplitConfig:    cfg.Address,
		Vault:          cfg.Vault,
		Mint:           cfg.Mint,
		ProtocolConfig: protocol.Address,
		Executor:       c.wallet.Address(),
		RecipientATAs:  atas,
		ProtocolATA:    protocolATA,
	})
	return c.signAndConfirm(ctx, []solana.Instruction{ix})
}

// getProtocolConfig serves the singleton from cache, reading through on a
// miss or after an invalidation.
func (c *Client) getProtocolConfig(ctx context.Context) (*program.ProtocolConfig, error) {
	if cached := c.protocolCache.Get(); cached != nil {
		return cached, nil
	}
	cfg, err := c.ledger.GetProtocolConfig(ctx)
	if err != nil {
		return nil, err
	}
	c.protocolCache.Set(cfg)
	return cfg, nil
}
