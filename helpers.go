package cascade

import (
	"context"
	"errors"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
)

// IsCascadeSplit reports whether the address is a split config or the
// vault of one. Missing accounts report false with no error.
func (c *Client) IsCascadeSplit(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.resolveSplit(ctx, address)
	if errors.Is(err, errSplitNotFound) || errors.Is(err, errNotASplit) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSplitConfig resolves and decodes a split from its config or vault
// address.
func (c *Client) GetSplitConfig(ctx context.Context, vaultOrConfig solana.PublicKey) (*program.SplitConfig, error) {
	return c.resolveSplit(ctx, vaultOrConfig)
}

// GetSplitBalance returns a split's undistributed vault balance.
func (c *Client) GetSplitBalance(ctx context.Context, vaultOrConfig solana.PublicKey) (uint64, error) {
	cfg, err := c.resolveSplit(ctx, vaultOrConfig)
	if err != nil {
		return 0, err
	}
	balance, err := c.ledger.GetTokenBalance(ctx, cfg.Vault)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return 0, nil
	}
	return balance, err
}

// PredictSplitAddress derives the config and vault addresses a split would
// occupy for an authority, mint and seed, without any network access.
func PredictSplitAddress(authority, mint, seed solana.PublicKey) (split, vault solana.PublicKey, err error) {
	split, _, err = program.DeriveSplitConfig(authority, mint, seed)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	vault, err = program.DeriveVault(split, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return split, vault, nil
}

// PredictLabeledSplitAddress is PredictSplitAddress for a human label.
func PredictLabeledSplitAddress(authority, mint solana.PublicKey, label string) (split, vault solana.PublicKey, err error) {
	seed, err := program.LabelToSeed(label)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return PredictSplitAddress(authority, mint, seed)
}

// PreviewExecution reports what an execute would pay out at the vault's
// current balance. Payout rows follow config order; the protocol fee is
// the remainder after recipient payouts, so rounding dust accrues to the
// protocol rather than vanishing.
func (c *Client) PreviewExecution(ctx context.Context, vaultOrConfig solana.PublicKey) (*ExecutionPreview, error) {
	cfg, err := c.resolveSplit(ctx, vaultOrConfig)
	if err != nil {
		return nil, err
	}
	balance, err := c.ledger.GetTokenBalance(ctx, cfg.Vault)
	if err != nil && !errors.Is(err, chain.ErrAccountNotFound) {
		return nil, err
	}

	preview := &ExecutionPreview{Balance: balance}
	var distributed uint64
	for _, r := range cfg.Recipients {
		// balance*bps overflows u64 past ~2^50 base units; divide first there.
		var amount uint64
		if balance < 1<<50 {
			amount = balance * uint64(r.PercentageBps) / 10_000
		} else {
			amount = balance / 10_000 * uint64(r.PercentageBps)
		}
		preview.Payouts = append(preview.Payouts, RecipientPayout{Address: r.Address, Amount: amount})
		distributed += amount
	}
	preview.ProtocolFee = balance - distributed
	return preview, nil
}
