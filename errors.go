package cascade

import (
	"regexp"
	"strconv"
	"strings"
)

// Blocked reasons: an on-chain precondition is not met. User-actionable;
// retrying without a state change will block again.
const (
	ReasonVaultNotEmpty        = "vault_not_empty"
	ReasonUnclaimedPending     = "unclaimed_pending"
	ReasonNotAuthority         = "not_authority"
	ReasonRecipientATAsMissing = "recipient_atas_missing"
)

// Failed reasons: a transport or program fault. The caller may retry.
const (
	ReasonWalletRejected     = "wallet_rejected"
	ReasonWalletDisconnected = "wallet_disconnected"
	ReasonNetworkError       = "network_error"
	ReasonTransactionExpired = "transaction_expired"
	ReasonProgramError       = "program_error"
	ReasonInvalidRecipients  = "invalid_recipients"
)

// Skipped reasons: expected non-events on the execute path.
const (
	ReasonNotFound       = "not_found"
	ReasonNotASplit      = "not_a_split"
	ReasonBelowThreshold = "below_threshold"
	ReasonNoPendingFunds = "no_pending_funds"
)

var customErrorCodeRe = regexp.MustCompile(`custom program error: (0x[0-9a-fA-F]+|\d+)`)

// ProgramErrorCode extracts the numeric custom error code from a program
// failure, if the error carries one.
func ProgramErrorCode(err error) (uint32, bool) {
	if err == nil {
		return 0, false
	}
	msg := err.Error()

	if m := customErrorCodeRe.FindStringSubmatch(msg); m != nil {
		code, perr := strconv.ParseUint(strings.TrimPrefix(m[1], "0x"), base(m[1]), 32)
		if perr == nil {
			return uint32(code), true
		}
	}

	// InstructionError payloads render as {"Custom":6014} in RPC errors.
	if idx := strings.Index(msg, `"Custom":`); idx >= 0 {
		rest := msg[idx+len(`"Custom":`):]
		end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
		if end == -1 {
			end = len(rest)
		}
		if code, perr := strconv.ParseUint(rest[:end], 10, 32); perr == nil {
			return uint32(code), true
		}
	}
	return 0, false
}

func base(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}

// ClassifyError maps a submission failure onto the Failed taxonomy. The
// reason is one of the Failed constants; the message stays human-readable.
func ClassifyError(err error) (reason, message string) {
	if err == nil {
		return "", ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "rejected") || strings.Contains(lower, "denied"):
		return ReasonWalletRejected, "transaction rejected by wallet"
	case strings.Contains(lower, "wallet not connected") || strings.Contains(lower, "disconnected"):
		return ReasonWalletDisconnected, "wallet disconnected"
	case strings.Contains(lower, "blockhash not found") ||
		strings.Contains(lower, "block height exceeded") ||
		strings.Contains(lower, "transaction expired") ||
		strings.Contains(lower, "context deadline exceeded") ||
		strings.Contains(lower, "context canceled"):
		return ReasonTransactionExpired, msg
	case strings.Contains(lower, "connection") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "eof") ||
		strings.Contains(lower, "dial tcp"):
		return ReasonNetworkError, msg
	}

	if code, ok := ProgramErrorCode(err); ok {
		return ReasonProgramError, "program returned custom error " + strconv.FormatUint(uint64(code), 10)
	}
	if strings.Contains(lower, "instructionerror") || strings.Contains(lower, "program failed") {
		return ReasonProgramError, msg
	}
	return ReasonNetworkError, msg
}
