// Package chain is the network-facing side of the SDK: account reads and
// decodes, transaction assembly, submission confirmation, and priority fee
// estimation against a Solana RPC endpoint.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/cascade-protocol/splits-go/program"
	"github.com/cascade-protocol/splits-go/smartaccount"
)

// ErrAccountNotFound reports that an account does not exist on-chain. A
// missing split config is not a fault: it selects the create path.
var ErrAccountNotFound = errors.New("account not found")

// Confirmation defaults for the polling strategy.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPollRetries  = 30
)

// Client reads accounts and awaits confirmations. It implements
// cascade.Ledger.
type Client struct {
	rpc        *rpc.Client
	ws         *ws.Client
	commitment rpc.CommitmentType

	pollInterval time.Duration
	pollRetries  int
}

// Option configures a Client.
type Option func(*Client)

// WithCommitment sets the commitment level for reads and confirmations.
func WithCommitment(c rpc.CommitmentType) Option {
	return func(cl *Client) { cl.commitment = c }
}

// WithPolling overrides the confirmation polling cadence.
func WithPolling(interval time.Duration, retries int) Option {
	return func(cl *Client) {
		cl.pollInterval = interval
		cl.pollRetries = retries
	}
}

// WithWebsocket attaches a websocket connection, enabling the
// subscription-based confirmation strategy. Callers without one fall back
// to polling.
func WithWebsocket(wsClient *ws.Client) Option {
	return func(cl *Client) { cl.ws = wsClient }
}

// New creates a Client against an RPC endpoint.
func New(rpcURL string, opts ...Option) *Client {
	cl := &Client{
		rpc:          rpc.New(rpcURL),
		commitment:   rpc.CommitmentConfirmed,
		pollInterval: DefaultPollInterval,
		pollRetries:  DefaultPollRetries,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// RPC exposes the underlying RPC client for callers that need raw access.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// Commitment returns the configured commitment level.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// GetAccountData fetches raw account bytes at the configured commitment.
func (c *Client) GetAccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	if res == nil || res.Value == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

// AccountExists reports whether an account exists.
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.GetAccountData(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSplitConfig reads and decodes a split config account.
func (c *Client) GetSplitConfig(ctx context.Context, address solana.PublicKey) (*program.SplitConfig, error) {
	data, err := c.GetAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return program.DecodeSplitConfig(address, data)
}

// GetProtocolConfig reads the protocol config singleton.
func (c *Client) GetProtocolConfig(ctx context.Context) (*program.ProtocolConfig, error) {
	address, _, err := program.DeriveProtocolConfig()
	if err != nil {
		return nil, err
	}
	data, err := c.GetAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return program.DecodeProtocolConfig(address, data)
}

// GetSpendingLimit reads and decodes a spending limit account.
func (c *Client) GetSpendingLimit(ctx context.Context, address solana.PublicKey) (*smartaccount.SpendingLimit, error) {
	data, err := c.GetAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return smartaccount.DecodeSpendingLimit(address, data)
}

// GetTokenBalance reads the balance of a token account.
func (c *Client) GetTokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	data, err := c.GetAccountData(ctx, account)
	if err != nil {
		return 0, err
	}
	return program.DecodeTokenBalance(data)
}

// GetMintDecimals reads a mint's decimal count.
func (c *Client) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	data, err := c.GetAccountData(ctx, mint)
	if err != nil {
		return 0, err
	}
	var m token.Mint
	if err := bin.NewBinDecoder(data).Decode(&m); err != nil {
		return 0, fmt.Errorf("failed to decode mint %s: %w", mint, err)
	}
	return m.Decimals, nil
}

// MinimumRentExemption returns the rent-exempt minimum for an account of
// the given size.
func (c *Client) MinimumRentExemption(ctx context.Context, size uint64) (uint64, error) {
	min, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, size, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rent exemption minimum: %w", err)
	}
	return min, nil
}

// LatestBlockhash returns the current recency anchor and its expiry height.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("failed to fetch latest blockhash: %w", err)
	}
	return res.Value.Blockhash, res.Value.LastValidBlockHeight, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, skipPreflight bool) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}
