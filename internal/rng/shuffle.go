package rng

import "github.com/lox/fairdeck/internal/sfmt"

// Shuffle returns a copy of the deck permuted by the Fisher-Yates
// algorithm driven by an SFMT stream keyed with the combined seed.
//
// The loop runs top-down with an inclusive upper bound, and each index
// is drawn by rejection sampling so no modulo bias leaks into the
// permutation. Both details are part of the protocol: implementations
// that disagree here produce different decks and fail
// cross-verification.
func Shuffle(d HashedDeck, seed Seed256) HashedDeck {
	if len(d) < 2 {
		return d.Clone()
	}
	perm := Permutation(len(d), seed)
	out := make(HashedDeck, len(d))
	for i, from := range perm {
		out[i] = d[from]
	}
	return out
}

// Permutation returns the index permutation Shuffle applies to a deck
// of n cards under the given seed: entry i is the pre-shuffle position
// of the card that ends up at position i. Useful for comparing
// implementations without sharing a deck.
func Permutation(n int, seed Seed256) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if n < 2 {
		return idx
	}
	g := sfmt.NewFromSeed(seed[:])
	for i := n - 1; i > 0; i-- {
		j := uniform(g, uint32(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

// uniform draws an unbiased integer in [0, n) from the 32-bit stream:
// words at or above the largest multiple of n are discarded.
func uniform(g *sfmt.SFMT, n uint32) uint32 {
	bound := uint64(1)<<32 - (uint64(1)<<32)%uint64(n)
	for {
		w := uint64(g.Uint32())
		if w < bound {
			return uint32(w % uint64(n))
		}
	}
}
