package cascade

import (
	"strconv"
	"strings"
)

// FormatAmount renders a base-unit token amount as a human decimal string.
// Trailing fractional zeros are trimmed: FormatAmount(1_500_000, 6) is
// "1.5" and FormatAmount(2_000_000, 6) is "2".
func FormatAmount(amount uint64, decimals uint8) string {
	s := strconv.FormatUint(amount, 10)
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], s[len(s)-d:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
