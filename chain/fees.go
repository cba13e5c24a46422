package chain

import (
	"context"
	"sort"

	solana "github.com/gagliardetto/solana-go"
)

// FallbackPriorityFee is used when recent fee data is unavailable, in
// micro-lamports per compute unit.
const FallbackPriorityFee uint64 = 10_000

// EstimatePriorityFee suggests a compute unit price from recent
// prioritization fees on the given accounts. It never fails: when the
// endpoint has no data or errors, the fallback applies. Fee estimation
// must not block a settlement.
func (c *Client) EstimatePriorityFee(ctx context.Context, accounts []solana.PublicKey) uint64 {
	fees, err := c.rpc.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil || len(fees) == 0 {
		return FallbackPriorityFee
	}

	nonzero := make([]uint64, 0, len(fees))
	for _, f := range fees {
		if f.PrioritizationFee > 0 {
			nonzero = append(nonzero, f.PrioritizationFee)
		}
	}
	if len(nonzero) == 0 {
		return FallbackPriorityFee
	}
	sort.Slice(nonzero, func(i, j int) bool { return nonzero[i] < nonzero[j] })
	return nonzero[len(nonzero)/2]
}
