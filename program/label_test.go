package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelRoundTrip(t *testing.T) {
	for _, label := range []string{"my-split", "a", "store_42.eu", "abcdefghijklmnopqrstuvwxyz0"} {
		seed, err := LabelToSeed(label)
		require.NoError(t, err, label)

		got, ok := SeedToLabel(seed)
		assert.True(t, ok, label)
		assert.Equal(t, label, got)
	}
}

func TestLabelToSeedRejects(t *testing.T) {
	for _, label := range []string{
		"",
		"abcdefghijklmnopqrstuvwxyz01", // 28 chars
		"UPPER",
		"has space",
		"emoji\xf0\x9f\x98\x80",
	} {
		_, err := LabelToSeed(label)
		assert.Error(t, err, "label %q", label)
	}
}

func TestSeedToLabelIgnoresUntagged(t *testing.T) {
	_, ok := SeedToLabel(ZeroSeed)
	assert.False(t, ok)

	_, ok = SeedToLabel(testKey(t))
	assert.False(t, ok)
}

func TestRandomSeedNeverLabels(t *testing.T) {
	for i := 0; i < 256; i++ {
		seed, err := RandomSeed()
		require.NoError(t, err)
		assert.NotEqual(t, ZeroSeed, seed)
		_, ok := SeedToLabel(seed)
		assert.False(t, ok)
	}
}
