package facilitator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	cascade "github.com/cascade-protocol/splits-go"
	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
	"github.com/cascade-protocol/splits-go/smartaccount"
)

// Ledger is the chain access the service needs. chain.Client satisfies it.
type Ledger interface {
	cascade.Ledger
	EstimatePriorityFee(ctx context.Context, accounts []solana.PublicKey) uint64
}

// Executor is the facilitator's signing identity. It is distinct from the
// smart account owner: the spending limit authorizes this address.
// signers.Local satisfies it.
type Executor interface {
	cascade.Wallet
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Service verifies and settles charges against on-chain spending limits.
type Service struct {
	ledger   Ledger
	executor Executor
	engine   *cascade.Client

	protocolCache *cascade.ProtocolConfigCache
	settlements   *SettlementCache

	computeUnitLimit uint32
	log              *zap.Logger
	metrics          *Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithComputeUnitLimit caps the compute units of settlement transactions.
func WithComputeUnitLimit(limit uint32) ServiceOption {
	return func(s *Service) { s.computeUnitLimit = limit }
}

// WithMetrics attaches outcome counters.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithSettlementCache overrides the idempotency cache.
func WithSettlementCache(cache *SettlementCache) ServiceOption {
	return func(s *Service) { s.settlements = cache }
}

// NewService creates the settlement service. The split-detection memo and
// protocol config cache are shared with the embedded engine so every
// request benefits from prior lookups.
func NewService(ledger Ledger, executor Executor, opts ...ServiceOption) (*Service, error) {
	protocolCache := cascade.NewProtocolConfigCache()
	engine, err := cascade.NewClient(ledger, executor,
		cascade.WithProtocolConfigCache(protocolCache),
	)
	if err != nil {
		return nil, err
	}
	s := &Service{
		ledger:        ledger,
		executor:      executor,
		engine:        engine,
		protocolCache: protocolCache,
		settlements:   NewSettlementCache(DefaultSettlementTTL),
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyRequest asks whether a charge would fit a capability's allowance.
type VerifyRequest struct {
	APIKey string `json:"apiKey"`
	Amount uint64 `json:"amount"`
}

// VerifyResponse reports the verification outcome.
type VerifyResponse struct {
	Valid              bool   `json:"valid"`
	RemainingAllowance uint64 `json:"remainingAllowance,omitempty"`
	PerTxLimit         uint64 `json:"perTxLimit,omitempty"`
	Error              string `json:"error,omitempty"`

	// NotFound distinguishes a missing spending limit (404) from a plain
	// rejection (400) at the HTTP layer.
	NotFound bool `json:"-"`
}

func invalidVerify(msg string) *VerifyResponse {
	return &VerifyResponse{Valid: false, Error: msg}
}

// Verify checks a charge against the capability token and the on-chain
// spending limit. Read-only, never signs, safe to call speculatively. The
// capability-local cap is checked before any chain read.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) *VerifyResponse {
	key, ok := DecodeAPIKey(req.APIKey)
	if !ok {
		return invalidVerify("invalid api key")
	}
	if req.Amount == 0 {
		return invalidVerify("amount must be positive")
	}
	if req.Amount > key.PerTxMax {
		return invalidVerify(fmt.Sprintf("amount %d exceeds per-transaction limit %d", req.Amount, key.PerTxMax))
	}

	sl, err := s.ledger.GetSpendingLimit(ctx, key.SpendingLimit)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return &VerifyResponse{Valid: false, Error: "spending limit not found", NotFound: true}
	}
	if err != nil {
		return invalidVerify("failed to read spending limit: " + err.Error())
	}
	if !sl.Settings.Equals(key.Settings) {
		return invalidVerify("spending limit does not belong to the key's settings account")
	}
	if req.Amount > sl.Remaining {
		return invalidVerify(fmt.Sprintf("amount %d exceeds remaining allowance %d", req.Amount, sl.Remaining))
	}

	return &VerifyResponse{
		Valid:              true,
		RemainingAllowance: sl.Remaining,
		PerTxLimit:         key.PerTxMax,
	}
}

// SettleRequest charges a capability and pays the proceeds out.
type SettleRequest struct {
	APIKey string `json:"apiKey"`
	PayTo  string `json:"payTo"`
	Amount uint64 `json:"amount"`
	// Defer returns the signed wire transaction instead of submitting it.
	// Finality is then the caller's responsibility.
	Defer bool `json:"defer,omitempty"`
	// RequestID lets a client retry a settle idempotently.
	RequestID string `json:"requestId,omitempty"`
}

// SettleResponse reports the settlement outcome.
type SettleResponse struct {
	Success     bool   `json:"success"`
	Signature   string `json:"signature,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Deferred    bool   `json:"deferred,omitempty"`
	Error       string `json:"error,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func failedSettle(reason, msg string) *SettleResponse {
	return &SettleResponse{Success: false, Reason: reason, Error: msg}
}

// Settle charges the capability's spending limit and transfers the amount
// to payTo, executor-signed. Duplicate requests for the same
// (key, payTo, amount, requestId) coalesce onto one submission.
func (s *Service) Settle(ctx context.Context, req SettleRequest) *SettleResponse {
	cacheKey := GenerateSettlementKey(req)

	status, cached, done := s.settlements.CheckAndMark(cacheKey)
	switch status {
	case StatusCached:
		if s.metrics != nil {
			s.metrics.SettleDuplicate.Inc()
		}
		return cached
	case StatusInFlight:
		res, err := s.settlements.WaitForResult(ctx, cacheKey, done)
		if err != nil {
			return failedSettle(cascade.ReasonTransactionExpired, "canceled while awaiting duplicate settlement")
		}
		if res != nil {
			return res
		}
		// The original attempt failed without caching; run our own.
		return s.Settle(ctx, req)
	}

	res := s.settle(ctx, req)
	if res.Success {
		s.settlements.Complete(cacheKey, res, done)
	} else {
		s.settlements.Fail(cacheKey, done)
	}
	return res
}

func (s *Service) settle(ctx context.Context, req SettleRequest) *SettleResponse {
	key, ok := DecodeAPIKey(req.APIKey)
	if !ok {
		return failedSettle("invalid_api_key", "invalid api key")
	}
	if req.Amount == 0 {
		return failedSettle("invalid_amount", "amount must be positive")
	}
	// Capability-local cap: rejected before any chain read.
	if req.Amount > key.PerTxMax {
		return failedSettle("per_tx_limit_exceeded",
			fmt.Sprintf("amount %d exceeds per-transaction limit %d", req.Amount, key.PerTxMax))
	}
	payTo, err := solana.PublicKeyFromBase58(req.PayTo)
	if err != nil {
		return failedSettle("invalid_pay_to", "payTo is not a valid address")
	}

	sl, err := s.ledger.GetSpendingLimit(ctx, key.SpendingLimit)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return failedSettle("spending_limit_not_found", "spending limit not found")
	}
	if err != nil {
		reason, msg := cascade.ClassifyError(err)
		return failedSettle(reason, msg)
	}
	if !sl.Settings.Equals(key.Settings) {
		return failedSettle("invalid_api_key", "spending limit does not belong to the key's settings account")
	}
	if !sl.Executor.Equals(s.executor.Address()) {
		return failedSettle(cascade.ReasonNotAuthority, "spending limit authorizes a different executor")
	}
	if req.Amount > sl.Remaining {
		return failedSettle("insufficient_allowance",
			fmt.Sprintf("amount %d exceeds remaining allowance %d", req.Amount, sl.Remaining))
	}

	decimals, err := s.ledger.GetMintDecimals(ctx, sl.Mint)
	if err != nil {
		reason, msg := cascade.ClassifyError(err)
		return failedSettle(reason, msg)
	}
	smartAccount, _, err := smartaccount.DeriveSmartAccount(sl.Settings, sl.AccountIndex)
	if err != nil {
		return failedSettle(cascade.ReasonProgramError, err.Error())
	}
	vaultATA, err := program.DeriveRecipientATA(smartAccount, sl.Mint)
	if err != nil {
		return failedSettle(cascade.ReasonProgramError, err.Error())
	}
	destination, splitCfg, res := s.resolveDestination(ctx, payTo, sl.Mint)
	if res != nil {
		return res
	}

	useLimit := smartaccount.NewUseSpendingLimitInstruction(smartaccount.UseSpendingLimitParams{
		Settings:       sl.Settings,
		SpendingLimit:  sl.Address,
		Executor:       s.executor.Address(),
		SmartAccount:   smartAccount,
		Mint:           sl.Mint,
		VaultATA:       vaultATA,
		DestinationATA: destination,
		Amount:         req.Amount,
		Decimals:       decimals,
	})

	// Fee estimation never blocks settlement: the estimator falls back to
	// a fixed fee on any RPC trouble.
	unitPrice := s.ledger.EstimatePriorityFee(ctx, []solana.PublicKey{vaultATA, destination})

	// Exactly one retry, and only for the stale fee recipient signal: the
	// protocol fee wallet rotated after the config cache was populated.
	invalidated := false
	for {
		instructions := []solana.Instruction{useLimit}
		if splitCfg != nil {
			executeIx, err := s.buildExecuteInstruction(ctx, splitCfg)
			if err != nil {
				reason, msg := cascade.ClassifyError(err)
				return failedSettle(reason, msg)
			}
			instructions = append(instructions, executeIx)
		}

		blockhash, _, err := s.ledger.LatestBlockhash(ctx)
		if err != nil {
			reason, msg := cascade.ClassifyError(err)
			return failedSettle(reason, msg)
		}
		tx, err := chain.BuildTransaction(s.executor.Address(), blockhash, instructions, chain.TxOptions{
			ComputeUnitPrice: unitPrice,
			ComputeUnitLimit: s.computeUnitLimit,
		})
		if err != nil {
			return failedSettle(cascade.ReasonProgramError, err.Error())
		}

		if req.Defer {
			if err := s.executor.SignTransaction(ctx, tx); err != nil {
				reason, msg := cascade.ClassifyError(err)
				return failedSettle(reason, msg)
			}
			wire, err := tx.MarshalBinary()
			if err != nil {
				return failedSettle(cascade.ReasonProgramError, err.Error())
			}
			return &SettleResponse{
				Success:     true,
				Deferred:    true,
				Transaction: base64.StdEncoding.EncodeToString(wire),
			}
		}

		sig, err := s.submitAndConfirm(ctx, tx)
		if err == nil {
			return &SettleResponse{Success: true, Signature: sig.String()}
		}
		if code, ok := cascade.ProgramErrorCode(err); ok &&
			code == program.ErrCodeInvalidProtocolFeeRecipient && !invalidated {
			s.log.Warn("stale protocol fee recipient, refreshing config and retrying once",
				zap.String("signature", sig.String()))
			s.protocolCache.Invalidate()
			invalidated = true
			if s.metrics != nil {
				s.metrics.SettleRetries.Inc()
			}
			continue
		}
		reason, msg := cascade.ClassifyError(err)
		return failedSettle(reason, msg)
	}
}

// resolveDestination maps payTo onto the token account the transfer lands
// in. A token account of the right mint is used directly; when it is a
// recognized split vault, the settlement also distributes it in the same
// transaction. Any other address is treated as a wallet whose ATA must
// already exist.
func (s *Service) resolveDestination(ctx context.Context, payTo, mint solana.PublicKey) (solana.PublicKey, *program.SplitConfig, *SettleResponse) {
	data, err := s.ledger.GetAccountData(ctx, payTo)
	if err == nil && len(data) == program.TokenAccountSize {
		accountMint, merr := program.DecodeTokenMint(data)
		if merr == nil && accountMint.Equals(mint) {
			cfg, cerr := s.engine.GetSplitConfig(ctx, payTo)
			if cerr == nil {
				return payTo, cfg, nil
			}
			return payTo, nil, nil
		}
		return solana.PublicKey{}, nil, failedSettle("invalid_pay_to", "payTo token account holds a different mint")
	}
	if err != nil && !errors.Is(err, chain.ErrAccountNotFound) {
		reason, msg := cascade.ClassifyError(err)
		return solana.PublicKey{}, nil, failedSettle(reason, msg)
	}

	ata, err := program.DeriveRecipientATA(payTo, mint)
	if err != nil {
		return solana.PublicKey{}, nil, failedSettle(cascade.ReasonProgramError, err.Error())
	}
	exists, err := s.ledger.AccountExists(ctx, ata)
	if err != nil {
		reason, msg := cascade.ClassifyError(err)
		return solana.PublicKey{}, nil, failedSettle(reason, msg)
	}
	if !exists {
		return solana.PublicKey{}, nil, failedSettle("destination_ata_missing",
			"destination token account does not exist for "+payTo.String())
	}
	return ata, nil, nil
}

func (s *Service) buildExecuteInstruction(ctx context.Context, cfg *program.SplitConfig) (solana.Instruction, error) {
	protocol := s.protocolCache.Get()
	if protocol == nil {
		fresh, err := s.ledger.GetProtocolConfig(ctx)
		if err != nil {
			return nil, err
		}
		s.protocolCache.Set(fresh)
		protocol = fresh
	}

	atas := make([]solana.PublicKey, len(cfg.Recipients))
	for i, r := range cfg.Recipients {
		ata, err := program.DeriveRecipientATA(r.Address, cfg.Mint)
		if err != nil {
			return nil, err
		}
		atas[i] = ata
	}
	protocolATA, err := program.DeriveRecipientATA(protocol.FeeWallet, cfg.Mint)
	if err != nil {
		return nil, err
	}

	return program.NewExecuteSplitInstruction(program.ExecuteSplitParams{
		SplitConfig:    cfg.Address,
		Vault:          cfg.Vault,
		Mint:           cfg.Mint,
		ProtocolConfig: protocol.Address,
		Executor:       s.executor.Address(),
		RecipientATAs:  atas,
		ProtocolATA:    protocolATA,
	}), nil
}

func (s *Service) submitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := s.executor.SignAndSend(ctx, tx, cascade.SendOptions{})
	if err != nil {
		return solana.Signature{}, err
	}
	if err := s.ledger.WaitForSignature(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
