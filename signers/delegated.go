package signers

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	cascade "github.com/cascade-protocol/splits-go"
)

// SignAndSendFunc signs a transaction out of process and returns the
// resulting signature. Browser wallets and remote custody services plug
// in here.
type SignAndSendFunc func(ctx context.Context, tx *solana.Transaction, opts cascade.SendOptions) (solana.Signature, error)

// Delegated is a wallet whose key never enters this process. Signing and
// submission happen through the callback.
type Delegated struct {
	address solana.PublicKey
	send    SignAndSendFunc
}

// NewDelegated creates a callback wallet.
func NewDelegated(address solana.PublicKey, send SignAndSendFunc) (*Delegated, error) {
	if address.IsZero() {
		return nil, fmt.Errorf("address is required")
	}
	if send == nil {
		return nil, fmt.Errorf("send callback is required")
	}
	return &Delegated{address: address, send: send}, nil
}

// Address returns the wallet's public key.
func (d *Delegated) Address() solana.PublicKey {
	return d.address
}

// SignAndSend forwards the transaction to the callback.
func (d *Delegated) SignAndSend(ctx context.Context, tx *solana.Transaction, opts cascade.SendOptions) (solana.Signature, error) {
	return d.send(ctx, tx, opts)
}
