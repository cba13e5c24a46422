// Package signers provides cascade.Wallet implementations: a local
// keypair signer for backend services, and a callback signer that
// delegates signing to an external wallet.
package signers

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	cascade "github.com/cascade-protocol/splits-go"
)

// Submitter sends a signed transaction to the network. chain.Client
// satisfies it.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction, skipPreflight bool) (solana.Signature, error)
}

// Local signs with a private key held in memory and submits through a
// Submitter. Suitable for backend services such as the facilitator's
// executor.
type Local struct {
	key       solana.PrivateKey
	submitter Submitter
}

// NewLocal creates a wallet from a base58-encoded private key.
func NewLocal(privateKeyBase58 string, submitter Submitter) (*Local, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	return &Local{key: key, submitter: submitter}, nil
}

// NewLocalFromKey creates a wallet from an already-parsed private key.
func NewLocalFromKey(key solana.PrivateKey, submitter Submitter) (*Local, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("private key is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	return &Local{key: key, submitter: submitter}, nil
}

// Address returns the signer's public key.
func (l *Local) Address() solana.PublicKey {
	return l.key.PublicKey()
}

// SignTransaction signs in place without submitting. Deferred settlement
// uses this to hand a signed wire transaction to a third party.
func (l *Local) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	return signWithKey(l.key, tx)
}

// SignAndSend signs the transaction and submits it.
func (l *Local) SignAndSend(ctx context.Context, tx *solana.Transaction, opts cascade.SendOptions) (solana.Signature, error) {
	if err := signWithKey(l.key, tx); err != nil {
		return solana.Signature{}, err
	}
	return l.submitter.SendTransaction(ctx, tx, opts.SkipPreflight)
}

func signWithKey(key solana.PrivateKey, tx *solana.Transaction) error {
	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	signature, err := key.Sign(messageBytes)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	accountIndex, err := tx.GetAccountIndex(key.PublicKey())
	if err != nil {
		return fmt.Errorf("failed to get account index: %w", err)
	}
	if len(tx.Signatures) <= int(accountIndex) {
		newSignatures := make([]solana.Signature, accountIndex+1)
		copy(newSignatures, tx.Signatures)
		tx.Signatures = newSignatures
	}
	tx.Signatures[accountIndex] = signature
	return nil
}
