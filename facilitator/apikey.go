// Package facilitator is the settlement service: it verifies and settles
// per-call charges against pre-authorized on-chain spending limits and
// exposes the verify/settle HTTP surface.
package facilitator

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/smartaccount"
)

// APIKeyPrefix marks the capability token wire format.
const APIKeyPrefix = "csk_"

// APIKey is the decoded capability token. It carries no secret: authority
// is enforced by the on-chain spending limit it points to, at use time.
type APIKey struct {
	Settings      solana.PublicKey
	SpendingLimit solana.PublicKey
	PerTxMax      uint64
	Version       int
}

type apiKeyWire struct {
	SettingsPDA      string `json:"settingsPda"`
	SpendingLimitPDA string `json:"spendingLimitPda"`
	PerTxMax         string `json:"perTxMax"`
	Version          int    `json:"version"`
}

// EncodeAPIKey derives the capability token for a spending limit. The same
// limit always encodes to the same key.
func EncodeAPIKey(sl *smartaccount.SpendingLimit, perTxMax uint64) string {
	wire := apiKeyWire{
		SettingsPDA:      sl.Settings.String(),
		SpendingLimitPDA: sl.Address.String(),
		PerTxMax:         strconv.FormatUint(perTxMax, 10),
		Version:          1,
	}
	payload, _ := json.Marshal(wire)
	return APIKeyPrefix + base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeAPIKey parses a capability token. Malformed input reports
// (nil, false); it never panics into caller code.
func DecodeAPIKey(key string) (*APIKey, bool) {
	if !strings.HasPrefix(key, APIKeyPrefix) {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(key, APIKeyPrefix))
	if err != nil {
		return nil, false
	}
	var wire apiKeyWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, false
	}
	settings, err := solana.PublicKeyFromBase58(wire.SettingsPDA)
	if err != nil {
		return nil, false
	}
	limit, err := solana.PublicKeyFromBase58(wire.SpendingLimitPDA)
	if err != nil {
		return nil, false
	}
	perTxMax, err := strconv.ParseUint(wire.PerTxMax, 10, 64)
	if err != nil {
		return nil, false
	}
	if wire.Version < 1 {
		return nil, false
	}
	return &APIKey{
		Settings:      settings,
		SpendingLimit: limit,
		PerTxMax:      perTxMax,
		Version:       wire.Version,
	}, true
}
