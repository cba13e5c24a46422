package cascade

import (
	"context"
	"errors"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
)

// EnsureParams describe the desired state for EnsureSplit. At most one of
// Seed and Label may be set; with neither, the zero-seed sentinel names the
// one default split per (authority, mint).
type EnsureParams struct {
	Mint       solana.PublicKey
	Recipients []Recipient
	Seed       solana.PublicKey
	Label      string
}

func resolveSeed(seed solana.PublicKey, label string) (solana.PublicKey, error) {
	if label != "" {
		if !seed.IsZero() {
			return solana.PublicKey{}, errors.New("seed and label are mutually exclusive")
		}
		return program.LabelToSeed(label)
	}
	if seed.IsZero() {
		return program.ZeroSeed, nil
	}
	return seed, nil
}

// EnsureSplit reconciles the desired recipient list onto the split config
// named by (wallet authority, mint, seed). It creates the config when
// missing, updates it when it differs and preconditions allow, and reports
// NoChange without sending anything when on-chain state already matches.
// Calling it repeatedly with the same desired state is safe and cheap.
func (c *Client) EnsureSplit(ctx context.Context, p EnsureParams) (*EnsureResult, error) {
	desired, err := normalizeRecipients(p.Recipients)
	if err != nil {
		return &EnsureResult{Status: StatusFailed, Reason: ReasonInvalidRecipients, Message: err.Error()}, nil
	}
	seed, err := resolveSeed(p.Seed, p.Label)
	if err != nil {
		return &EnsureResult{Status: StatusFailed, Reason: ReasonInvalidRecipients, Message: err.Error()}, nil
	}

	authority := c.wallet.Address()
	splitAddr, _, err := program.DeriveSplitConfig(authority, p.Mint, seed)
	if err != nil {
		return nil, err
	}
	vault, err := program.DeriveVault(splitAddr, p.Mint)
	if err != nil {
		return nil, err
	}
	result := &EnsureResult{Split: splitAddr, Vault: vault}

	cfg, err := c.ledger.GetSplitConfig(ctx, splitAddr)
	exists := true
	if errors.Is(err, chain.ErrAccountNotFound) {
		exists = false
	} else if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}

	// Recipient ATAs gate both the create and the update path, before any
	// chain write.
	atas, missingMsg, err := c.checkRecipientATAs(ctx, p.Mint, desired)
	if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	if missingMsg != "" {
		result.Status, result.Reason, result.Message = StatusBlocked, ReasonRecipientATAsMissing, missingMsg
		return result, nil
	}

	if !exists {
		return c.createSplit(ctx, result, splitAddr, seed, authority, p.Mint, vault, desired, atas)
	}

	if !cfg.Authority.Equals(authority) {
		result.Status = StatusBlocked
		result.Reason = ReasonNotAuthority
		result.Message = "split config is owned by " + cfg.Authority.String()
		return result, nil
	}
	if sameRecipientSet(desired, cfg.Recipients) {
		result.Status = StatusNoChange
		return result, nil
	}

	return c.updateExisting(ctx, cfg, desired, atas, result)
}

func (c *Client) createSplit(ctx context.Context, result *EnsureResult, splitAddr, seed, authority, mint, vault solana.PublicKey, desired []program.RecipientInput, atas []solana.PublicKey) (*EnsureResult, error) {
	configRent, err := c.ledger.MinimumRentExemption(ctx, program.SplitConfigSize)
	if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}
	vaultRent, err := c.ledger.MinimumRentExemption(ctx, program.TokenAccountSize)
	if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		return result, nil
	}

	ix, err := program.NewCreateSplitConfigInstruction(program.CreateSplitConfigParams{
		SplitConfig:   splitAddr,
		UniqueID:      seed,
		Authority:     authority,
		Payer:         authority,
		Mint:          mint,
		Vault:         vault,
		Recipients:    desired,
		RecipientATAs: atas,
	})
	if err != nil {
		return nil, err
	}

	sig, err := c.signAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		reason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, reason, msg
		result.Signature = sig
		return result, nil
	}
	result.Status = StatusCreated
	result.Signature = sig
	result.RentPaid = configRent + vaultRent
	return result, nil
}

// updateExisting runs the precondition checks and submits the update. The
// result carries EnsureSplit's shape; UpdateSplit converts it.
func (c *Client) updateExisting(ctx context.Context, cfg *program.SplitConfig, desired []program.RecipientInput, atas []solana.PublicKey, result *EnsureResult) (*EnsureResult, error) {
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

	ix, err := program.NewUpdateSplitConfigInstruction(program.UpdateSplitConfigParams{
		SplitConfig:   cfg.Address,
		Vault:         cfg.Vault,
		Mint:          cfg.Mint,
		Authority:     cfg.Authority,
		Recipients:    desired,
		RecipientATAs: atas,
	})
	if err != nil {
		return nil, err
	}

	sig, err := c.signAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		freason, msg := ClassifyError(err)
		result.Status, result.Reason, result.Message = StatusFailed, freason, msg
		result.Signature = sig
		return result, nil
	}
	result.Status = StatusUpdated
	result.Signature = sig
	return result, nil
}
