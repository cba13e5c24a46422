// Package cascade is the client SDK for the Cascade Splits protocol. It
// reconciles a desired recipient list onto on-chain split configurations,
// executes distributions, and backs the payment facilitator service.
package cascade

import (
	"fmt"
	"sort"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/program"
)

// Recipient is the client-facing recipient input. Exactly one of Share
// (1-100, human scale) or PercentageBps (1-9900, protocol scale) must be
// set; the other must be zero.
type Recipient struct {
	Address       solana.PublicKey `json:"address"`
	Share         uint16           `json:"share,omitempty"`
	PercentageBps uint16           `json:"percentageBps,omitempty"`
}

// ShareToBps converts a human share (1-100) to basis points. The protocol
// keeps 1%, so a 100-share split maps to 9900 bps.
func ShareToBps(share uint16) uint16 {
	return share * 99
}

// BpsToShare converts basis points back to the human share scale.
func BpsToShare(bps uint16) uint16 {
	return (bps + 49) / 99
}

// Status is the terminal state of an engine operation.
type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusUpdated       Status = "UPDATED"
	StatusNoChange      Status = "NO_CHANGE"
	StatusClosed        Status = "CLOSED"
	StatusAlreadyClosed Status = "ALREADY_CLOSED"
	StatusExecuted      Status = "EXECUTED"
	StatusBlocked       Status = "BLOCKED"
	StatusSkipped       Status = "SKIPPED"
	StatusFailed        Status = "FAILED"
)

// EnsureResult reports the outcome of EnsureSplit.
type EnsureResult struct {
	Status    Status
	Split     solana.PublicKey
	Vault     solana.PublicKey
	Signature solana.Signature
	// RentPaid is the lamports paid for rent exemption on the create path.
	RentPaid uint64
	Reason   string
	Message  string
}

// UpdateResult reports the outcome of UpdateSplit.
type UpdateResult struct {
	Status    Status
	Split     solana.PublicKey
	Signature solana.Signature
	Reason    string
	Message   string
}

// CloseResult reports the outcome of CloseSplit.
type CloseResult struct {
	Status    Status
	Split     solana.PublicKey
	Signature solana.Signature
	Reason    string
	Message   string
}

// ExecuteResult reports the outcome of ExecuteSplit.
type ExecuteResult struct {
	Status    Status
	Split     solana.PublicKey
	Signature solana.Signature
	Reason    string
	Message   string
}

// RecipientPayout is one row of an execution preview.
type RecipientPayout struct {
	Address solana.PublicKey
	Amount  uint64
}

// ExecutionPreview describes what an execute would distribute at the
// vault's current balance.
type ExecutionPreview struct {
	Balance     uint64
	Payouts     []RecipientPayout
	ProtocolFee uint64
}

// normalizeRecipients validates a client recipient list and converts it to
// the protocol wire form. Validation failures never touch the network.
func normalizeRecipients(recipients []Recipient) ([]program.RecipientInput, error) {
	if len(recipients) < program.MinRecipients || len(recipients) > program.MaxRecipients {
		return nil, fmt.Errorf("recipient count must be between %d and %d, got %d",
			program.MinRecipients, program.MaxRecipients, len(recipients))
	}

	out := make([]program.RecipientInput, len(recipients))
	seen := make(map[solana.PublicKey]struct{}, len(recipients))
	var totalBps uint32

	for i, r := range recipients {
		if r.Address.IsZero() {
			return nil, fmt.Errorf("recipient %d has a zero address", i)
		}
		if _, dup := seen[r.Address]; dup {
			return nil, fmt.Errorf("duplicate recipient address %s", r.Address)
		}
		seen[r.Address] = struct{}{}

		var bps uint16
		switch {
		case r.Share != 0 && r.PercentageBps != 0:
			return nil, fmt.Errorf("recipient %s sets both share and percentageBps", r.Address)
		case r.Share != 0:
			if r.Share > 100 {
				return nil, fmt.Errorf("recipient %s share %d is out of range [1,100]", r.Address, r.Share)
			}
			bps = ShareToBps(r.Share)
		case r.PercentageBps != 0:
			bps = r.PercentageBps
		default:
			return nil, fmt.Errorf("recipient %s sets neither share nor percentageBps", r.Address)
		}

		if bps > program.RequiredSplitTotal {
			return nil, fmt.Errorf("recipient %s percentage %d bps is out of range [1,%d]",
				r.Address, bps, program.RequiredSplitTotal)
		}
		out[i] = program.RecipientInput{Address: r.Address, PercentageBps: bps}
		totalBps += uint32(bps)
	}

	if totalBps != program.RequiredSplitTotal {
		return nil, fmt.Errorf("recipient percentages must sum to %d bps (99%%), got %d",
			program.RequiredSplitTotal, totalBps)
	}
	return out, nil
}

// sameRecipientSet compares desired recipients against on-chain state by
// set equality: both sides are sorted by address before comparing
// address+bps pairs, so recipient order never forces an update.
func sameRecipientSet(desired []program.RecipientInput, current []program.Recipient) bool {
	if len(desired) != len(current) {
		return false
	}

	d := make([]program.RecipientInput, len(desired))
	copy(d, desired)
	sort.Slice(d, func(i, j int) bool {
		return d[i].Address.String() < d[j].Address.String()
	})

	c := make([]program.Recipient, len(current))
	copy(c, current)
	sort.Slice(c, func(i, j int) bool {
		return c[i].Address.String() < c[j].Address.String()
	})

	for i := range d {
		if !d[i].Address.Equals(c[i].Address) || d[i].PercentageBps != c[i].PercentageBps {
			return false
		}
	}
	return true
}
