package utils

import (
	"github.com/twmb/murmur3"
)

// HashStrings hashes the sequence as a whole, a zero byte separates the items
// so that ["ab", "c"] and ["a", "bc"] differ.
func HashStrings(ss ...string) uint64 {
	hash := murmur3.New64()
	for _, s := range ss {
		// hash.Hash never returns an error from Write
		_, _ = hash.Write([]byte(s))
		_, _ = hash.Write([]byte{0})
	}
	return hash.Sum64()
}
