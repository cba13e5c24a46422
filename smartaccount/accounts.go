package smartaccount

import (
	"bytes"
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// SpendingLimit is the decoded on-chain spending limit record. It binds one
// settings account to one executor for a capped amount per period.
type SpendingLimit struct {
	Address      solana.PublicKey
	Settings     solana.PublicKey
	SeedKey      solana.PublicKey
	Executor     solana.PublicKey
	Mint         solana.PublicKey
	AccountIndex uint8
	Period       Period
	Amount       uint64
	Remaining    uint64
	LastReset    int64
	Bump         uint8
}

// SpendingLimit byte layout:
// disc[8] | settings[32] | seedKey[32] | executor[32] | mint[32] |
// accountIndex u8 | period u8 | pad[6] | amount u64-LE | remaining u64-LE |
// lastReset i64-LE | bump u8
const (
	spendingLimitOffSettings  = 8
	spendingLimitOffSeedKey   = 40
	spendingLimitOffExecutor  = 72
	spendingLimitOffMint      = 104
	spendingLimitOffIndex     = 136
	spendingLimitOffPeriod    = 137
	spendingLimitOffAmount    = 144 // 6 bytes alignment padding after period
	spendingLimitOffRemaining = 152
	spendingLimitOffLastReset = 160
	spendingLimitOffBump      = 168

	// SpendingLimitSize is the full account size including discriminator.
	SpendingLimitSize = 169
)

// DecodeSpendingLimit decodes a raw spending limit account.
func DecodeSpendingLimit(address solana.PublicKey, data []byte) (*SpendingLimit, error) {
	if len(data) < SpendingLimitSize {
		return nil, fmt.Errorf("spending limit account too small: got %d bytes, want %d", len(data), SpendingLimitSize)
	}
	if !bytes.Equal(data[:8], SpendingLimitDiscriminator[:]) {
		return nil, fmt.Errorf("account %s is not a spending limit (discriminator mismatch)", address)
	}

	sl := &SpendingLimit{
		Address:      address,
		AccountIndex: data[spendingLimitOffIndex],
		Period:       Period(data[spendingLimitOffPeriod]),
		Amount:       binary.LittleEndian.Uint64(data[spendingLimitOffAmount:]),
		Remaining:    binary.LittleEndian.Uint64(data[spendingLimitOffRemaining:]),
		LastReset:    int64(binary.LittleEndian.Uint64(data[spendingLimitOffLastReset:])),
		Bump:         data[spendingLimitOffBump],
	}
	copy(sl.Settings[:], data[spendingLimitOffSettings:])
	copy(sl.SeedKey[:], data[spendingLimitOffSeedKey:])
	copy(sl.Executor[:], data[spendingLimitOffExecutor:])
	copy(sl.Mint[:], data[spendingLimitOffMint:])
	return sl, nil
}

// EncodeSpendingLimit serializes a spending limit to the on-chain layout.
// Test fixture helper; clients never write these accounts.
func EncodeSpendingLimit(sl *SpendingLimit) []byte {
	data := make([]byte, SpendingLimitSize)
	copy(data[:8], SpendingLimitDiscriminator[:])
	copy(data[spendingLimitOffSettings:], sl.Settings[:])
	copy(data[spendingLimitOffSeedKey:], sl.SeedKey[:])
	copy(data[spendingLimitOffExecutor:], sl.Executor[:])
	copy(data[spendingLimitOffMint:], sl.Mint[:])
	data[spendingLimitOffIndex] = sl.AccountIndex
	data[spendingLimitOffPeriod] = uint8(sl.Period)
	binary.LittleEndian.PutUint64(data[spendingLimitOffAmount:], sl.Amount)
	binary.LittleEndian.PutUint64(data[spendingLimitOffRemaining:], sl.Remaining)
	binary.LittleEndian.PutUint64(data[spendingLimitOffLastReset:], uint64(sl.LastReset))
	data[spendingLimitOffBump] = sl.Bump
	return data
}
