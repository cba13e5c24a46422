package cascade

import (
	"context"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/program"
	"github.com/cascade-protocol/splits-go/smartaccount"
)

// SendOptions tune transaction submission.
type SendOptions struct {
	SkipPreflight bool
}

// Wallet is the engine's signing capability: anything that holds an
// address and can sign-and-submit an assembled transaction. Adapters exist
// for local key custody (signers.Local) and externally delegated signing
// (signers.Delegated).
type Wallet interface {
	Address() solana.PublicKey
	SignAndSend(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error)
}

// Ledger is the read/await side of the chain. chain.Client implements it
// against a real RPC endpoint; tests substitute in-memory fakes.
type Ledger interface {
	// GetSplitConfig reads and decodes a split config account. A missing
	// account reports chain.ErrAccountNotFound, which signals the create
	// path rather than a fault.
	GetSplitConfig(ctx context.Context, address solana.PublicKey) (*program.SplitConfig, error)

	// GetProtocolConfig reads the protocol config singleton.
	GetProtocolConfig(ctx context.Context) (*program.ProtocolConfig, error)

	// GetSpendingLimit reads and decodes a spending limit account.
	GetSpendingLimit(ctx context.Context, address solana.PublicKey) (*smartaccount.SpendingLimit, error)

	// GetTokenBalance reads the balance of a token account.
	GetTokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// GetAccountData fetches raw account bytes.
	GetAccountData(ctx context.Context, address solana.PublicKey) ([]byte, error)

	// AccountExists reports whether an account exists at any size.
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)

	// GetMintDecimals reads a mint's decimal count.
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)

	// MinimumRentExemption returns the rent-exempt minimum for an account
	// of the given size.
	MinimumRentExemption(ctx context.Context, size uint64) (uint64, error)

	// LatestBlockhash returns the current recency anchor and the last
	// block height at which a transaction anchored to it stays valid.
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)

	// WaitForSignature blocks until the signature reaches the ledger's
	// configured commitment, the transaction errors, or ctx is done.
	WaitForSignature(ctx context.Context, sig solana.Signature) error
}
