package cascade

import (
	"context"
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
)

// Client is the reconciliation engine. It is stateless per call apart from
// the two injected caches, so one Client safely serves concurrent requests.
type Client struct {
	ledger Ledger
	wallet Wallet

	splitMemo     *SplitMemo
	protocolCache *ProtocolConfigCache

	sendOpts SendOptions
	txOpts   chain.TxOptions
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSplitMemo shares a split-detection memo across clients. The
// facilitator process injects one memo for all requests.
func WithSplitMemo(memo *SplitMemo) ClientOption {
	return func(c *Client) { c.splitMemo = memo }
}

// WithProtocolConfigCache shares a protocol config cache across clients.
func WithProtocolConfigCache(cache *ProtocolConfigCache) ClientOption {
	return func(c *Client) { c.protocolCache = cache }
}

// WithSendOptions sets submission options for every transaction the client
// sends.
func WithSendOptions(opts SendOptions) ClientOption {
	return func(c *Client) { c.sendOpts = opts }
}

// WithComputeBudget sets the compute unit price and limit attached to every
// transaction the client assembles.
func WithComputeBudget(unitPrice uint64, unitLimit uint32) ClientOption {
	return func(c *Client) {
		c.txOpts = chain.TxOptions{ComputeUnitPrice: unitPrice, ComputeUnitLimit: unitLimit}
	}
}

// NewClient creates a reconciliation engine over a ledger and a wallet. The
// wallet is the authority for ensure/update/close and the executor for
// execute.
func NewClient(ledger Ledger, wallet Wallet, opts ...ClientOption) (*Client, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet is required")
	}
	c := &Client{
		ledger:        ledger,
		wallet:        wallet,
		splitMemo:     NewSplitMemo(),
		protocolCache: NewProtocolConfigCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// signAndConfirm assembles the instructions into a transaction, signs and
// submits through the wallet, and awaits confirmation. Every mutating
// operation funnels through here so failures classify uniformly.
func (c *Client) signAndConfirm(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	blockhash, _, err := c.ledger.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	tx, err := chain.BuildTransaction(c.wallet.Address(), blockhash, instructions, c.txOpts)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.wallet.SignAndSend(ctx, tx, c.sendOpts)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := c.ledger.WaitForSignature(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// Resolution sentinels for vault-or-config address arguments.
var (
	errSplitNotFound = errors.New("split config not found")
	errNotASplit     = errors.New("not a split config or vault")
)

// resolveSplit accepts either a split config address or its vault address
// and returns the decoded config. Definitive answers are memoized;
// "account does not exist yet" never is.
func (c *Client) resolveSplit(ctx context.Context, address solana.PublicKey) (*program.SplitConfig, error) {
	if isSplit, known := c.splitMemo.Lookup(address); known && !isSplit {
		return nil, errNotASplit
	}

	data, err := c.ledger.GetAccountData(ctx, address)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return nil, errSplitNotFound
	}
	if err != nil {
		return nil, err
	}

	if cfg, decErr := program.DecodeSplitConfig(address, data); decErr == nil {
		c.splitMemo.Store(address, true)
		return cfg, nil
	}

	// Not a config. A vault is a token account whose owner is the config.
	if len(data) == program.TokenAccountSize {
		owner, ownErr := program.DecodeTokenOwner(data)
		if ownErr == nil {
			cfgData, cfgErr := c.ledger.GetAccountData(ctx, owner)
			if cfgErr == nil {
				if cfg, decErr := program.DecodeSplitConfig(owner, cfgData); decErr == nil && cfg.Vault.Equals(address) {
					c.splitMemo.Store(address, true)
					return cfg, nil
				}
			} else if !errors.Is(cfgErr, chain.ErrAccountNotFound) {
				return nil, cfgErr
			}
		}
	}

	c.splitMemo.Store(address, false)
	return nil, errNotASplit
}

// checkRecipientATAs verifies every recipient's token account exists for
// the mint. It returns the Blocked message when any are missing: up to two
// addresses spelled out, plus a count of the rest.
func (c *Client) checkRecipientATAs(ctx context.Context, mint solana.PublicKey, recipients []program.RecipientInput) (atas []solana.PublicKey, missingMsg string, err error) {
	atas = make([]solana.PublicKey, len(recipients))
	var missing []solana.PublicKey
	for i, r := range recipients {
		ata, derr := program.DeriveRecipientATA(r.Address, mint)
		if derr != nil {
			return nil, "", derr
		}
		atas[i] = ata
		exists, eerr := c.ledger.AccountExists(ctx, ata)
		if eerr != nil {
			return nil, "", eerr
		}
		if !exists {
			missing = append(missing, r.Address)
		}
	}
	if len(missing) == 0 {
		return atas, "", nil
	}

	msg := "recipient token accounts missing for " + missing[0].String()
	if len(missing) >= 2 {
		msg += ", " + missing[1].String()
	}
	if extra := len(missing) - 2; extra > 0 {
		msg += fmt.Sprintf(" and %d more", extra)
	}
	return nil, msg, nil
}

// updateBlockReason checks the on-chain preconditions for mutating an
// existing config: empty vault and no unclaimed carry-overs. It returns a
// Blocked reason and message, or empty strings when the update may proceed.
func (c *Client) updateBlockReason(ctx context.Context, cfg *program.SplitConfig) (reason, message string, err error) {
	balance, err := c.ledger.GetTokenBalance(ctx, cfg.Vault)
	if err != nil && !errors.Is(err, chain.ErrAccountNotFound) {
		return "", "", err
	}
	if balance > 0 {
		decimals, derr := c.ledger.GetMintDecimals(ctx, cfg.Mint)
		if derr != nil {
			return "", "", derr
		}
		return ReasonVaultNotEmpty,
			fmt.Sprintf("vault holds %s tokens; execute or drain the split first", FormatAmount(balance, decimals)),
			nil
	}
	if amount, claimants := cfg.TotalUnclaimed(); amount > 0 {
		return ReasonUnclaimedPending,
			fmt.Sprintf("%d claimants have %d base units unclaimed; execute the split first", claimants, amount),
			nil
	}
	return "", "", nil
}
