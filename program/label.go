package program

import (
	"bytes"
	"crypto/rand"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// Human labels pack into the 32-byte unique id as a 5-byte tag followed by
// up to 27 label bytes, zero padded. Seeds without the tag are opaque
// random ids and have no label.
var labelTag = [5]byte{'c', 's', 'p', 'l', 0x01}

// MaxLabelLength is the longest label that fits after the tag.
const MaxLabelLength = 27

// LabelToSeed packs a human label into a unique id seed. Labels are limited
// to lowercase alphanumerics plus "-", "_" and ".".
func LabelToSeed(label string) (solana.PublicKey, error) {
	if label == "" {
		return solana.PublicKey{}, fmt.Errorf("label is empty")
	}
	if len(label) > MaxLabelLength {
		return solana.PublicKey{}, fmt.Errorf("label %q is longer than %d characters", label, MaxLabelLength)
	}
	for i := 0; i < len(label); i++ {
		if !isLabelByte(label[i]) {
			return solana.PublicKey{}, fmt.Errorf("label %q contains invalid character %q", label, label[i])
		}
	}

	var seed solana.PublicKey
	copy(seed[:5], labelTag[:])
	copy(seed[5:], label)
	return seed, nil
}

// SeedToLabel recovers the label from a seed, or ("", false) when the seed
// is random or the zero sentinel.
func SeedToLabel(seed solana.PublicKey) (string, bool) {
	if !bytes.Equal(seed[:5], labelTag[:]) {
		return "", false
	}
	raw := seed[5:]
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	if end == 0 {
		return "", false
	}
	for _, b := range raw[:end] {
		if !isLabelByte(b) {
			return "", false
		}
	}
	return string(raw[:end]), true
}

// RandomSeed returns a fresh random unique id. The first byte is re-rolled
// if it would collide with the label tag, so a random seed never decodes as
// a label.
func RandomSeed() (solana.PublicKey, error) {
	var seed solana.PublicKey
	if _, err := rand.Read(seed[:]); err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to generate seed: %w", err)
	}
	for seed[0] == labelTag[0] {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			return solana.PublicKey{}, fmt.Errorf("failed to generate seed: %w", err)
		}
		seed[0] = b[0]
	}
	return seed, nil
}

func isLabelByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.':
		return true
	}
	return false
}
