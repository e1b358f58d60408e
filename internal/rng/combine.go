package rng

import "golang.org/x/crypto/sha3"

// CombineSeeds folds the revealed seeds into the single 32-byte seed
// that drives the shuffle: SHAKE256 over their concatenation, in the
// exact order supplied. Two parties that disagree on order will
// disagree on the shuffled deck, so fixing the canonical order is the
// session layer's job; this function preserves input order bit-exactly.
//
// Empty input yields the all-zero seed. That is a contract, not a
// safety claim.
func CombineSeeds(seeds []Seed256) Seed256 {
	var combined Seed256
	if len(seeds) == 0 {
		return combined
	}
	buf := make([]byte, 0, len(seeds)*32)
	for _, s := range seeds {
		buf = append(buf, s[:]...)
	}
	sha3.ShakeSum256(combined[:], buf)
	return combined
}
