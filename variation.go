package cfdg

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// MaxVariationLength is the longest variation code accepted.
const MaxVariationLength = 13

// VariationFromString converts a variation code such as "ABC" into the
// seed of a render. Codes are bijective base-26 numbers over A..Z ("A" is
// 1, "Z" is 26, "AA" is 27), case-insensitive. The empty code is 0.
func VariationFromString(code string) (uint64, error) {
	if len(code) > MaxVariationLength {
		return 0, fmt.Errorf("cfdg: variation %q is longer than %d letters", code, MaxVariationLength)
	}
	var v uint64
	for _, c := range strings.ToUpper(code) {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("cfdg: invalid variation %q", code)
		}
		v = v*26 + uint64(c-'A'+1)
	}
	return v, nil
}

// VariationString is the inverse of VariationFromString.
func VariationString(v uint64) string {
	var buf [MaxVariationLength + 1]byte
	i := len(buf)
	for v > 0 {
		v--
		i--
		buf[i] = byte('A' + v%26)
		v /= 26
	}
	return string(buf[i:])
}

// RandomVariation returns a random variation code of the given number of
// letters.
func RandomVariation(letters int) uint64 {
	letters = min(max(letters, 1), MaxVariationLength)
	var v uint64
	for range letters {
		v = v*26 + uint64(rand.IntN(26)+1)
	}
	return v
}
