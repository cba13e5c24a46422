package facilitator

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cascade "github.com/cascade-protocol/splits-go"
	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
	"github.com/cascade-protocol/splits-go/smartaccount"
)

// fakeLedger serves raw account bytes from memory and counts every chain
// access, so tests can assert which checks run before any network touch.
type fakeLedger struct {
	accounts map[solana.PublicKey][]byte
	decimals map[solana.PublicKey]uint8
	reads    int
	sendErrs []error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: make(map[solana.PublicKey][]byte),
		decimals: make(map[solana.PublicKey]uint8),
	}
}

func (f *fakeLedger) data(address solana.PublicKey) ([]byte, error) {
	f.reads++
	data, ok := f.accounts[address]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeLedger) GetAccountData(_ context.Context, address solana.PublicKey) ([]byte, error) {
	return f.data(address)
}

func (f *fakeLedger) AccountExists(_ context.Context, address solana.PublicKey) (bool, error) {
	f.reads++
	_, ok := f.accounts[address]
	return ok, nil
}

func (f *fakeLedger) GetSplitConfig(_ context.Context, address solana.PublicKey) (*program.SplitConfig, error) {
	data, err := f.data(address)
	if err != nil {
		return nil, err
	}
	return program.DecodeSplitConfig(address, data)
}

func (f *fakeLedger) GetProtocolConfig(_ context.Context) (*program.ProtocolConfig, error) {
	address, _, err := program.DeriveProtocolConfig()
	if err != nil {
		return nil, err
	}
	data, err := f.data(address)
	if err != nil {
		return nil, err
	}
	return program.DecodeProtocolConfig(address, data)
}

func (f *fakeLedger) GetSpendingLimit(_ context.Context, address solana.PublicKey) (*smartaccount.SpendingLimit, error) {
	data, err := f.data(address)
	if err != nil {
		return nil, err
	}
	return smartaccount.DecodeSpendingLimit(address, data)
}

func (f *fakeLedger) GetTokenBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	data, err := f.data(account)
	if err != nil {
		return 0, err
	}
	return program.DecodeTokenBalance(data)
}

func (f *fakeLedger) GetMintDecimals(_ context.Context, mint solana.PublicKey) (uint8, error) {
	f.reads++
	return f.decimals[mint], nil
}

func (f *fakeLedger) MinimumRentExemption(_ context.Context, size uint64) (uint64, error) {
	f.reads++
	return size * 10, nil
}

func (f *fakeLedger) LatestBlockhash(_ context.Context) (solana.Hash, uint64, error) {
	f.reads++
	return solana.Hash{7}, 2000, nil
}

func (f *fakeLedger) WaitForSignature(_ context.Context, _ solana.Signature) error {
	f.reads++
	if len(f.sendErrs) == 0 {
		return nil
	}
	err := f.sendErrs[0]
	f.sendErrs = f.sendErrs[1:]
	return err
}

func (f *fakeLedger) EstimatePriorityFee(_ context.Context, _ []solana.PublicKey) uint64 {
	return chain.FallbackPriorityFee
}

// fakeExecutor signs nothing and counts submissions.
type fakeExecutor struct {
	addr  solana.PublicKey
	sends int
	signs int
}

func (e *fakeExecutor) Address() solana.PublicKey { return e.addr }

func (e *fakeExecutor) SignAndSend(_ context.Context, _ *solana.Transaction, _ cascade.SendOptions) (solana.Signature, error) {
	e.sends++
	var sig solana.Signature
	sig[0] = byte(e.sends)
	return sig, nil
}

func (e *fakeExecutor) SignTransaction(_ context.Context, _ *solana.Transaction) error {
	e.signs++
	return nil
}

func tokenAccountBytes(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, program.TokenAccountSize)
	copy(data[:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

// testCapability installs a spending limit bound to the executor and
// returns its API key.
func testCapability(t *testing.T, ledger *fakeLedger, executor *fakeExecutor, remaining, perTxMax uint64) (*smartaccount.SpendingLimit, string) {
	t.Helper()
	sl := &smartaccount.SpendingLimit{
		Address:   testKey(t),
		Settings:  testKey(t),
		SeedKey:   testKey(t),
		Executor:  executor.addr,
		Mint:      testKey(t),
		Period:    smartaccount.PeriodDay,
		Amount:    remaining,
		Remaining: remaining,
	}
	ledger.accounts[sl.Address] = smartaccount.EncodeSpendingLimit(sl)
	ledger.decimals[sl.Mint] = 6
	return sl, EncodeAPIKey(sl, perTxMax)
}

func newTestService(t *testing.T, ledger *fakeLedger, executor *fakeExecutor) *Service {
	t.Helper()
	service, err := NewService(ledger, executor)
	require.NoError(t, err)
	return service
}

func TestVerify(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	_, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	service := newTestService(t, ledger, executor)
	ctx := context.Background()

	res := service.Verify(ctx, VerifyRequest{APIKey: apiKey, Amount: 500_000})
	assert.True(t, res.Valid)
	assert.Equal(t, uint64(10_000_000), res.RemainingAllowance)
	assert.Equal(t, uint64(1_000_000), res.PerTxLimit)

	res = service.Verify(ctx, VerifyRequest{APIKey: "garbage", Amount: 1})
	assert.False(t, res.Valid)

	res = service.Verify(ctx, VerifyRequest{APIKey: apiKey, Amount: 0})
	assert.False(t, res.Valid)

	res = service.Verify(ctx, VerifyRequest{APIKey: apiKey, Amount: 2_000_000})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "per-transaction limit")
}

func TestVerifyRevokedSpendingLimit(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	delete(ledger.accounts, sl.Address)
	service := newTestService(t, ledger, executor)

	res := service.Verify(context.Background(), VerifyRequest{APIKey: apiKey, Amount: 1})
	assert.False(t, res.Valid)
	assert.True(t, res.NotFound)
}

func TestVerifyInsufficientAllowance(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, _ := testCapability(t, ledger, executor, 300, 1_000_000)
	apiKey := EncodeAPIKey(sl, 1_000_000)
	service := newTestService(t, ledger, executor)

	res := service.Verify(context.Background(), VerifyRequest{APIKey: apiKey, Amount: 500})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "remaining allowance")
}

func TestSettleCapCheckBeforeChainRead(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	_, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	readsAfterSetup := ledger.reads
	service := newTestService(t, ledger, executor)

	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  testKey(t).String(),
		Amount: 2_000_000,
	})
	assert.False(t, res.Success)
	assert.Equal(t, "per_tx_limit_exceeded", res.Reason)
	// The capability-local cap rejects without touching the chain.
	assert.Equal(t, readsAfterSetup, ledger.reads)
	assert.Zero(t, executor.sends)
}

func TestSettleHappyPathToWallet(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	service := newTestService(t, ledger, executor)

	payTo := testKey(t)
	destATA, err := program.DeriveRecipientATA(payTo, sl.Mint)
	require.NoError(t, err)
	ledger.accounts[destATA] = tokenAccountBytes(sl.Mint, payTo, 0)

	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  payTo.String(),
		Amount: 250_000,
	})
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.Signature)
	assert.Equal(t, 1, executor.sends)
}

func TestSettleMissingDestinationATA(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	_, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	service := newTestService(t, ledger, executor)

	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  testKey(t).String(),
		Amount: 250_000,
	})
	assert.False(t, res.Success)
	assert.Equal(t, "destination_ata_missing", res.Reason)
	assert.Zero(t, executor.sends)
}

func TestSettleWrongExecutor(t *testing.T) {
	ledger := newFakeLedger()
	boundExecutor := &fakeExecutor{addr: testKey(t)}
	_, apiKey := testCapability(t, ledger, boundExecutor, 10_000_000, 1_000_000)

	other := &fakeExecutor{addr: testKey(t)}
	service := newTestService(t, ledger, other)

	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  testKey(t).String(),
		Amount: 1,
	})
	assert.False(t, res.Success)
	assert.Equal(t, cascade.ReasonNotAuthority, res.Reason)
}

func TestSettleDeferredReturnsTransaction(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	service := newTestService(t, ledger, executor)

	payTo := testKey(t)
	destATA, err := program.DeriveRecipientATA(payTo, sl.Mint)
	require.NoError(t, err)
	ledger.accounts[destATA] = tokenAccountBytes(sl.Mint, payTo, 0)

	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  payTo.String(),
		Amount: 100,
		Defer:  true,
	})
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Deferred)
	assert.NotEmpty(t, res.Transaction)
	assert.Empty(t, res.Signature)
	assert.Equal(t, 1, executor.signs)
	assert.Zero(t, executor.sends)
}

func TestSettleIdempotentDuplicate(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)
	service := newTestService(t, ledger, executor)

	payTo := testKey(t)
	destATA, err := program.DeriveRecipientATA(payTo, sl.Mint)
	require.NoError(t, err)
	ledger.accounts[destATA] = tokenAccountBytes(sl.Mint, payTo, 0)

	req := SettleRequest{
		APIKey:    apiKey,
		PayTo:     payTo.String(),
		Amount:    250_000,
		RequestID: "req-1",
	}
	first := service.Settle(context.Background(), req)
	require.True(t, first.Success)

	second := service.Settle(context.Background(), req)
	require.True(t, second.Success)
	assert.Equal(t, first.Signature, second.Signature)
	assert.Equal(t, 1, executor.sends)

	// A different request id is a new settlement.
	req.RequestID = "req-2"
	third := service.Settle(context.Background(), req)
	require.True(t, third.Success)
	assert.Equal(t, 2, executor.sends)
}

func TestSettleStaleFeeRecipientRetryOnce(t *testing.T) {
	ledger := newFakeLedger()
	executor := &fakeExecutor{addr: testKey(t)}
	sl, apiKey := testCapability(t, ledger, executor, 10_000_000, 1_000_000)

	// payTo is a split vault: the settlement appends a distribution, which
	// is what can trip over a rotated protocol fee wallet.
	authority := testKey(t)
	splitAddr, _, err := program.DeriveSplitConfig(authority, sl.Mint, program.ZeroSeed)
	require.NoError(t, err)
	vault, err := program.DeriveVault(splitAddr, sl.Mint)
	require.NoError(t, err)
	recipient := testKey(t)
	cfgBytes, err := program.EncodeSplitConfig(&program.SplitConfig{
		Address:    splitAddr,
		Authority:  authority,
		Mint:       sl.Mint,
		Vault:      vault,
		Recipients: []program.Recipient{{Address: recipient, PercentageBps: 9900}},
	})
	require.NoError(t, err)
	ledger.accounts[splitAddr] = cfgBytes
	ledger.accounts[vault] = tokenAccountBytes(sl.Mint, splitAddr, 1_000)

	protoAddr, _, err := program.DeriveProtocolConfig()
	require.NoError(t, err)
	feeWallet := testKey(t)
	proto := make([]byte, program.ProtocolConfigSize)
	copy(proto[:8], program.ProtocolConfigDiscriminator[:])
	copy(proto[8:40], authority[:])
	copy(proto[40:72], feeWallet[:])
	ledger.accounts[protoAddr] = proto

	staleFee := errors.New("custom program error: 0x177e")
	ledger.sendErrs = []error{staleFee, staleFee}

	service := newTestService(t, ledger, executor)
	res := service.Settle(context.Background(), SettleRequest{
		APIKey: apiKey,
		PayTo:  vault.String(),
		Amount: 500,
	})

	// Both attempts fail with the stale-fee signal: exactly one retry, then
	// a terminal failure.
	assert.False(t, res.Success)
	assert.Equal(t, cascade.ReasonProgramError, res.Reason)
	assert.Equal(t, 2, executor.sends)
}
