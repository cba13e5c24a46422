package cascade

import (
	"context"
	"encoding/binary"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/program"
	"github.com/cascade-protocol/splits-go/smartaccount"
)

// fakeLedger is an in-memory Ledger. It stores raw account bytes, so the
// engine exercises the real codecs, and counts every chain access for the
// tests that assert an operation never reached the network.
type fakeLedger struct {
	accounts map[solana.PublicKey][]byte
	decimals map[solana.PublicKey]uint8
	reads    int
	waitErrs []error
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
	return solana.Hash{1}, 1000, nil
}

func (f *fakeLedger) WaitForSignature(_ context.Context, _ solana.Signature) error {
	f.reads++
	if len(f.waitErrs) == 0 {
		return nil
	}
	err := f.waitErrs[0]
	f.waitErrs = f.waitErrs[1:]
	return err
}

// fakeWallet signs nothing and counts submissions.
type fakeWallet struct {
	addr  solana.PublicKey
	sends int
	errs  []error
}

func (w *fakeWallet) Address() solana.PublicKey { return w.addr }

func (w *fakeWallet) SignAndSend(_ context.Context, _ *solana.Transaction, _ SendOptions) (solana.Signature, error) {
	w.sends++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		return solana.Signature{}, err
	}
	var sig solana.Signature
	sig[0] = byte(w.sends)
	return sig, nil
}

func testKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func tokenAccountBytes(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, program.TokenAccountSize)
	copy(data[:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

// installSplit writes a split config and its vault into the fake ledger.
func installSplit(t *testing.T, ledger *fakeLedger, cfg *program.SplitConfig, vaultBalance uint64) {
	t.Helper()
	data, err := program.EncodeSplitConfig(cfg)
	require.NoError(t, err)
	ledger.accounts[cfg.Address] = data
	ledger.accounts[cfg.Vault] = tokenAccountBytes(cfg.Mint, cfg.Address, vaultBalance)
}

// installATAs creates the recipients' token accounts for a mint.
func installATAs(t *testing.T, ledger *fakeLedger, mint solana.PublicKey, recipients ...solana.PublicKey) {
	t.Helper()
	for _, r := range recipients {
		ata, err := program.DeriveRecipientATA(r, mint)
		require.NoError(t, err)
		ledger.accounts[ata] = tokenAccountBytes(mint, r, 0)
	}
}

// installProtocol writes the protocol config singleton and the fee wallet's
// ATA for a mint.
func installProtocol(t *testing.T, ledger *fakeLedger, feeWallet, mint solana.PublicKey) {
	t.Helper()
	address, bump, err := program.DeriveProtocolConfig()
	require.NoError(t, err)
	data := make([]byte, program.ProtocolConfigSize)
	copy(data[:8], program.ProtocolConfigDiscriminator[:])
	authority := feeWallet
	copy(data[8:40], authority[:])
	copy(data[40:72], feeWallet[:])
	data[72] = bump
	ledger.accounts[address] = data
	installATAs(t, ledger, mint, feeWallet)
}

func newTestClient(t *testing.T, ledger *fakeLedger, wallet *fakeWallet) *Client {
	t.Helper()
	client, err := NewClient(ledger, wallet)
	require.NoError(t, err)
	return client
}
