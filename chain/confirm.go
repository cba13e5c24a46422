package chain

import (
	"context"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func commitmentRank(c rpc.ConfirmationStatusType) int {
	switch c {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	}
	return 0
}

func targetRank(c rpc.CommitmentType) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentConfirmed:
		return 2
	case rpc.CommitmentFinalized:
		return 3
	}
	return 2
}

// WaitForSignature blocks until the signature reaches the client's
// commitment level, the transaction fails on-chain, or the retry budget
// runs out. With a websocket attached it subscribes; otherwise it polls.
func (c *Client) WaitForSignature(ctx context.Context, sig solana.Signature) error {
	if c.ws != nil {
		return c.waitSubscribe(ctx, sig)
	}
	return c.waitPoll(ctx, sig)
}

func (c *Client) waitPoll(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.pollRetries; attempt++ {
		res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			if commitmentRank(status.ConfirmationStatus) >= targetRank(c.commitment) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return fmt.Errorf("transaction %s not confirmed after %d attempts", sig, c.pollRetries)
}

func (c *Client) waitSubscribe(ctx context.Context, sig solana.Signature) error {
	sub, err := c.ws.SignatureSubscribe(sig, c.commitment)
	if err != nil {
		// Subscription setup can fail independently of the transaction;
		// polling still answers the question.
		return c.waitPoll(ctx, sig)
	}
	defer sub.Unsubscribe()

	res, err := sub.Recv(ctx)
	if err != nil {
		return fmt.Errorf("failed awaiting signature %s: %w", sig, err)
	}
	if res.Value.Err != nil {
		return fmt.Errorf("transaction %s failed: %v", sig, res.Value.Err)
	}
	return nil
}
