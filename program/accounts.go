package program

import (
	"bytes"
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// Recipient is one entry of a split configuration.
type Recipient struct {
	Address       solana.PublicKey
	PercentageBps uint16
}

// UnclaimedAmount is a per-recipient carry-over recorded when a transfer to
// that recipient's ATA failed during execution.
type UnclaimedAmount struct {
	Recipient solana.PublicKey
	Amount    uint64
	Timestamp int64
}

// SplitConfig is the decoded on-chain split configuration record.
type SplitConfig struct {
	Address           solana.PublicKey
	Version           uint8
	Authority         solana.PublicKey
	Mint              solana.PublicKey
	Vault             solana.PublicKey
	UniqueID          solana.PublicKey
	Bump              uint8
	Recipients        []Recipient
	Unclaimed         []UnclaimedAmount
	ProtocolUnclaimed uint64
}

// ProtocolConfig is the decoded protocol configuration singleton.
type ProtocolConfig struct {
	Address          solana.PublicKey
	Authority        solana.PublicKey
	PendingAuthority solana.PublicKey
	FeeWallet        solana.PublicKey
	Bump             uint8
}

// Zero-copy repr(C) field offsets inside a SplitConfig account.
const (
	splitConfigOffVersion    = 8
	splitConfigOffAuthority  = 9
	splitConfigOffMint       = 41
	splitConfigOffVault      = 73
	splitConfigOffUniqueID   = 105
	splitConfigOffBump       = 137
	splitConfigOffCount      = 138
	splitConfigOffRecipients = 140 // 1 byte alignment padding after count
	recipientEntrySize       = 34  // 32-byte address + u16 bps
	splitConfigOffUnclaimed  = 824 // 4 bytes alignment padding after recipients
	unclaimedEntrySize       = 48  // 32-byte address + u64 amount + i64 timestamp
	splitConfigOffProto      = 1784
)

// Extended ProtocolConfig layout carries a pending authority for two-step
// authority transfer. The original layout omits it.
const protocolConfigSizeV2 = 105

// DecodeSplitConfig decodes a raw split config account. The address is the
// account's own address, carried through for callers.
func DecodeSplitConfig(address solana.PublicKey, data []byte) (*SplitConfig, error) {
	if len(data) < SplitConfigSize {
		return nil, fmt.Errorf("split config account too small: got %d bytes, want %d", len(data), SplitConfigSize)
	}
	if !bytes.Equal(data[:8], SplitConfigDiscriminator[:]) {
		return nil, fmt.Errorf("account %s is not a split config (discriminator mismatch)", address)
	}

	cfg := &SplitConfig{
		Address: address,
		Version: data[splitConfigOffVersion],
		Bump:    data[splitConfigOffBump],
	}
	copy(cfg.Authority[:], data[splitConfigOffAuthority:])
	copy(cfg.Mint[:], data[splitConfigOffMint:])
	copy(cfg.Vault[:], data[splitConfigOffVault:])
	copy(cfg.UniqueID[:], data[splitConfigOffUniqueID:])

	count := int(data[splitConfigOffCount])
	if count > MaxRecipients {
		return nil, fmt.Errorf("split config %s has invalid recipient count %d", address, count)
	}

	cfg.Recipients = make([]Recipient, count)
	for i := 0; i < count; i++ {
		off := splitConfigOffRecipients + i*recipientEntrySize
		var r Recipient
		copy(r.Address[:], data[off:off+32])
		r.PercentageBps = binary.LittleEndian.Uint16(data[off+32 : off+34])
		cfg.Recipients[i] = r
	}

	// Unclaimed slots can outlive the recipient that produced them (a
	// recipient removed by an update keeps its carry-over), so all slots
	// are scanned, not just the first count.
	for i := 0; i < MaxRecipients; i++ {
		off := splitConfigOffUnclaimed + i*unclaimedEntrySize
		var u UnclaimedAmount
		copy(u.Recipient[:], data[off:off+32])
		u.Amount = binary.LittleEndian.Uint64(data[off+32 : off+40])
		u.Timestamp = int64(binary.LittleEndian.Uint64(data[off+40 : off+48]))
		if u.Amount > 0 {
			cfg.Unclaimed = append(cfg.Unclaimed, u)
		}
	}

	cfg.ProtocolUnclaimed = binary.LittleEndian.Uint64(data[splitConfigOffProto : splitConfigOffProto+8])
	return cfg, nil
}

// EncodeSplitConfig serializes a split config to the on-chain byte layout.
// Used by tests to build account fixtures; the client never writes accounts.
func EncodeSplitConfig(cfg *SplitConfig) ([]byte, error) {
	if len(cfg.Recipients) > MaxRecipients {
		return nil, fmt.Errorf("too many recipients: %d", len(cfg.Recipients))
	}
	data := make([]byte, SplitConfigSize)
	copy(data[:8], SplitConfigDiscriminator[:])
	data[splitConfigOffVersion] = cfg.Version
	copy(data[splitConfigOffAuthority:], cfg.Authority[:])
	copy(data[splitConfigOffMint:], cfg.Mint[:])
	copy(data[splitConfigOffVault:], cfg.Vault[:])
	copy(data[splitConfigOffUniqueID:], cfg.UniqueID[:])
	data[splitConfigOffBump] = cfg.Bump
	data[splitConfigOffCount] = uint8(len(cfg.Recipients))

	for i, r := range cfg.Recipients {
		off := splitConfigOffRecipients + i*recipientEntrySize
		copy(data[off:], r.Address[:])
		binary.LittleEndian.PutUint16(data[off+32:], r.PercentageBps)
	}
	for i, u := range cfg.Unclaimed {
		if i >= MaxRecipients {
			break
		}
		off := splitConfigOffUnclaimed + i*unclaimedEntrySize
		copy(data[off:], u.Recipient[:])
		binary.LittleEndian.PutUint64(data[off+32:], u.Amount)
		binary.LittleEndian.PutUint64(data[off+40:], uint64(u.Timestamp))
	}
	binary.LittleEndian.PutUint64(data[splitConfigOffProto:], cfg.ProtocolUnclaimed)
	return data, nil
}

// TotalUnclaimed returns the sum of recipient carry-overs plus the protocol
// carry-over, and the number of claimants owed.
func (c *SplitConfig) TotalUnclaimed() (amount uint64, claimants int) {
	for _, u := range c.Unclaimed {
		amount += u.Amount
		claimants++
	}
	amount += c.ProtocolUnclaimed
	if c.ProtocolUnclaimed > 0 {
		claimants++
	}
	return amount, claimants
}

// DecodeProtocolConfig decodes a raw protocol config account. Both the
// original 73-byte layout and the 105-byte layout with a pending authority
// are accepted.
func DecodeProtocolConfig(address solana.PublicKey, data []byte) (*ProtocolConfig, error) {
	if len(data) < ProtocolConfigSize {
		return nil, fmt.Errorf("protocol config account too small: got %d bytes, want %d", len(data), ProtocolConfigSize)
	}
	if !bytes.Equal(data[:8], ProtocolConfigDiscriminator[:]) {
		return nil, fmt.Errorf("account %s is not a protocol config (discriminator mismatch)", address)
	}

	cfg := &ProtocolConfig{Address: address}
	copy(cfg.Authority[:], data[8:40])
	if len(data) >= protocolConfigSizeV2 {
		copy(cfg.PendingAuthority[:], data[40:72])
		copy(cfg.FeeWallet[:], data[72:104])
		cfg.Bump = data[104]
	} else {
		copy(cfg.FeeWallet[:], data[40:72])
		cfg.Bump = data[72]
	}
	return cfg, nil
}

// tokenBalanceOffset is where the u64 amount sits in an SPL token account
// (32-byte mint followed by 32-byte owner).
const tokenBalanceOffset = 64

// DecodeTokenBalance reads the balance out of a raw SPL token account.
func DecodeTokenBalance(data []byte) (uint64, error) {
	if len(data) < tokenBalanceOffset+8 {
		return 0, fmt.Errorf("token account too small: got %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data[tokenBalanceOffset : tokenBalanceOffset+8]), nil
}

// DecodeTokenMint reads the mint out of a raw SPL token account.
func DecodeTokenMint(data []byte) (solana.PublicKey, error) {
	if len(data) < 32 {
		return solana.PublicKey{}, fmt.Errorf("token account too small: got %d bytes", len(data))
	}
	var mint solana.PublicKey
	copy(mint[:], data[:32])
	return mint, nil
}

// DecodeTokenOwner reads the owner wallet out of a raw SPL token account.
func DecodeTokenOwner(data []byte) (solana.PublicKey, error) {
	if len(data) < 64 {
		return solana.PublicKey{}, fmt.Errorf("token account too small: got %d bytes", len(data))
	}
	var owner solana.PublicKey
	copy(owner[:], data[32:64])
	return owner, nil
}
